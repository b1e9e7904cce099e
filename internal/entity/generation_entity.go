package entity

// GenerationConfig parameterizes one generation or refinement batch. It is
// validated before any worker is spawned; an invalid config aborts the whole
// request with no partial work performed.
type GenerationConfig struct {
	NumImages        int    `json:"numImages" validate:"required,min=3,max=6"`
	Resolution       [2]int `json:"resolution" validate:"required,dive,gt=0"`
	OutputDir        string `json:"outputDir" validate:"required"`
	ModelName        string `json:"modelName" validate:"required"`
	Seed             *int64 `json:"seed"`
	AspectRatio      string `json:"aspectRatio" validate:"required"`
	EnforceGrayscale bool   `json:"enforceGrayscale"`
}

// GenerationOutcome is the terminal result of one worker slot. Exactly one
// of ImagePath/Error is set: success XOR failure.
type GenerationOutcome struct {
	Index     int
	ImagePath *string
	Error     *string
}

// GenerationResult is the request-level result. Images and ImageErrors are
// slot-indexed parallel arrays: Images[i] == nil iff ImageErrors[i] != nil.
type GenerationResult struct {
	Images          []*string
	ImageErrors     []*string
	MetadataPath    string
	Timestamp       string
	PromptSpec      PromptSpec
	ReferenceImages []string
	Config          GenerationConfig
}

// SuccessPaths returns the non-nil image paths in slot order.
func (r *GenerationResult) SuccessPaths() []string {
	paths := make([]string, 0, len(r.Images))
	for _, p := range r.Images {
		if p != nil {
			paths = append(paths, *p)
		}
	}
	return paths
}

// StyleRef is the minimal style identity recorded in generation metadata.
type StyleRef struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// GenerationRecord is one history listing entry derived from a generation
// directory's metadata.
type GenerationRecord struct {
	Timestamp  string   `json:"timestamp"`
	DirName    string   `json:"dirName"`
	UserPrompt string   `json:"userPrompt"`
	Style      StyleRef `json:"style"`
	ImageCount int      `json:"imageCount"`
	Images     []string `json:"images"`
}

// GenerationMetadata is the JSON document persisted once per generation
// directory. Images lists basenames of successful slots only; ImageErrors
// lists the error strings of failed slots only, so the two may be shorter
// than the requested batch size. Refine batches set Mode to "refine" and
// fill the refine fields instead of the prompt-spec fields.
type GenerationMetadata struct {
	Timestamp       string           `json:"timestamp"`
	Archived        bool             `json:"archived"`
	Mode            string           `json:"mode,omitempty"`
	UserPrompt      string           `json:"userPrompt,omitempty"`
	CompiledPrompt  string           `json:"compiledPrompt,omitempty"`
	RefinePrompt    string           `json:"refinePrompt,omitempty"`
	OriginalContext string           `json:"originalContext,omitempty"`
	RefineHistory   []string         `json:"refineHistory,omitempty"`
	SourceImages    []string         `json:"sourceImages,omitempty"`
	Style           StyleRef         `json:"style"`
	PromptSpec      *PromptSpec      `json:"promptSpec,omitempty"`
	ReferenceImages []string         `json:"referenceImages,omitempty"`
	RetrievalScores []float64        `json:"retrievalScores,omitempty"`
	Config          GenerationConfig `json:"config"`
	Images          []string         `json:"images"`
	ImageErrors     []string         `json:"imageErrors"`
}
