package model

// StyleRefDocument is the style identity stamped into generation metadata.
type StyleRefDocument struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// PromptSpecDocument is the persisted prompt specification.
type PromptSpecDocument struct {
	Intent              string                 `json:"intent"`
	RefinedIntent       string                 `json:"refined_intent"`
	StyleId             string                 `json:"style_id"`
	VisualConstraints   map[string]interface{} `json:"visual_constraints"`
	NegativeConstraints []string               `json:"negative_constraints"`
	Placement           string                 `json:"placement,omitempty"`
	SubjectMatter       string                 `json:"subject_matter,omitempty"`
	Mood                string                 `json:"mood,omitempty"`
	Technique           string                 `json:"technique,omitempty"`
	Fidelity            string                 `json:"fidelity,omitempty"`
	CompositionNotes    string                 `json:"composition_notes,omitempty"`
	ColorGuidance       string                 `json:"color_guidance,omitempty"`
}

// GenerationConfigDocument is the persisted batch configuration.
type GenerationConfigDocument struct {
	NumImages        int    `json:"num_images"`
	Resolution       [2]int `json:"resolution"`
	ModelName        string `json:"model_name"`
	Seed             *int64 `json:"seed,omitempty"`
	AspectRatio      string `json:"aspect_ratio"`
	EnforceGrayscale bool   `json:"enforce_grayscale"`
}

// GenerationMetadataDocument is the on-disk shape of metadata.json inside a
// generation output directory. Generate batches fill the prompt fields,
// refine batches the refine fields; Images holds basenames of successful
// slots only.
type GenerationMetadataDocument struct {
	Timestamp       string                   `json:"timestamp"`
	Archived        bool                     `json:"archived"`
	Mode            string                   `json:"mode,omitempty"`
	UserPrompt      string                   `json:"user_prompt,omitempty"`
	CompiledPrompt  string                   `json:"gpt_compiled_prompt,omitempty"`
	RefinePrompt    string                   `json:"refine_prompt,omitempty"`
	OriginalContext string                   `json:"original_context,omitempty"`
	RefineHistory   []string                 `json:"refine_history,omitempty"`
	SourceImages    []string                 `json:"source_images,omitempty"`
	Style           StyleRefDocument         `json:"style"`
	PromptSpec      *PromptSpecDocument      `json:"prompt_spec,omitempty"`
	ReferenceImages []string                 `json:"reference_images,omitempty"`
	RetrievalScores []float64                `json:"retrieval_scores,omitempty"`
	Config          GenerationConfigDocument `json:"config"`
	Images          []string                 `json:"images"`
	ImageErrors     []string                 `json:"image_errors"`
}

func (GenerationMetadataDocument) Filename() string {
	return "metadata.json"
}
