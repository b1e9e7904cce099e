package entity

// VisualRules captures the hand-authored drawing constraints of a style.
type VisualRules struct {
	LineWeight      string   `json:"lineWeight"`
	Looseness       string   `json:"looseness"`
	Complexity      string   `json:"complexity"`
	AdditionalRules []string `json:"additionalRules"`
}

// Style is a named visual domain: reference images plus textual rules that
// scope both retrieval and generation.
type Style struct {
	Id              string      `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	VisualRules     VisualRules `json:"visualRules"`
	ReferenceImages []string    `json:"referenceImages"`
	DoNotUse        []string    `json:"doNotUse"`
	FeedbackSummary string      `json:"feedbackSummary,omitempty"`
}

// ExclusionSet returns the style's do-not-use paths as a lookup set.
func (s *Style) ExclusionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.DoNotUse))
	for _, p := range s.DoNotUse {
		set[p] = struct{}{}
	}
	return set
}
