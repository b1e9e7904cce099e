package model

// VisualRulesDocument is the persisted shape of a style's drawing rules.
type VisualRulesDocument struct {
	LineWeight      string   `json:"line_weight"`
	Looseness       string   `json:"looseness"`
	Complexity      string   `json:"complexity"`
	AdditionalRules []string `json:"additional_rules"`
}

// StyleDocument is the on-disk shape of style_library/{styleId}/style.json.
// The style id is the directory name, not a document field. Reference image
// entries are bare filenames under the shared reference images directory;
// the mapper resolves them to full paths on load.
type StyleDocument struct {
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	VisualRules     VisualRulesDocument `json:"visual_rules"`
	ReferenceImages []string            `json:"reference_images"`
	DoNotUse        []string            `json:"do_not_use"`
	FeedbackSummary string              `json:"feedback_summary,omitempty"`
}

func (StyleDocument) Filename() string {
	return "style.json"
}
