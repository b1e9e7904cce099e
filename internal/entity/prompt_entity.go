package entity

// PromptSpec is the model-agnostic prompt specification produced by the
// prompt compiler. Intent preserves the designer's wording; RefinedIntent is
// the interpreted version that feeds retrieval and generation.
type PromptSpec struct {
	Intent        string `json:"intent"`
	RefinedIntent string `json:"refinedIntent"`

	StyleId           string                 `json:"styleId"`
	VisualConstraints map[string]interface{} `json:"visualConstraints"`

	NegativeConstraints []string `json:"negativeConstraints"`

	Placement     string `json:"placement,omitempty"`
	SubjectMatter string `json:"subjectMatter,omitempty"`
	Mood          string `json:"mood,omitempty"`
	Technique     string `json:"technique,omitempty"`
	Fidelity      string `json:"fidelity,omitempty"`

	CompositionNotes string `json:"compositionNotes,omitempty"`
	ColorGuidance    string `json:"colorGuidance,omitempty"`
}
