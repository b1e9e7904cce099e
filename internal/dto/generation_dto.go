package dto

// GenerateRequest is the body of POST /generate and POST /generate-stream.
// NumImages outside 3..6 is rejected by the generation config validator
// before any worker is spawned; zero means "use the default of 4".
type GenerateRequest struct {
	Input            string `json:"input" validate:"required"`
	StyleId          string `json:"styleId" validate:"required"`
	NumImages        int    `json:"numImages" validate:"omitempty,min=1,max=6"`
	ExperimentalMode bool   `json:"experimentalMode"`
	SessionId        string `json:"sessionId"`
}

// RefineRequest is the body of POST /refine and POST /refine-stream.
// SelectedImagePaths are the relative URLs previous responses handed out,
// e.g. "/generated/20250101_120000/sketch_0.png".
type RefineRequest struct {
	RefinePrompt       string   `json:"refinePrompt" validate:"required"`
	SelectedImagePaths []string `json:"selectedImagePaths" validate:"required,min=1,max=6,dive,required"`
	StyleId            string   `json:"styleId" validate:"required"`
	SessionId          string   `json:"sessionId"`
}

type PromptSpecInfo struct {
	Intent              string   `json:"intent"`
	RefinedIntent       string   `json:"refinedIntent"`
	NegativeConstraints []string `json:"negativeConstraints"`
}

type SketchMetadata struct {
	PromptSpec      PromptSpecInfo `json:"promptSpec"`
	ReferenceImages []string       `json:"referenceImages"`
	RetrievalScores []float64      `json:"retrievalScores"`
}

// Sketch is one slot of a generation batch. ImagePath is null for failed
// slots, with Error carrying the reason.
type Sketch struct {
	Id         string         `json:"id"`
	Resolution [2]int         `json:"resolution"`
	Metadata   SketchMetadata `json:"metadata"`
	ImagePath  *string        `json:"imagePath"`
	Error      string         `json:"error,omitempty"`
}

type ConfigUsed struct {
	NumImages  int    `json:"numImages"`
	Resolution [2]int `json:"resolution"`
	OutputDir  string `json:"outputDir"`
	ModelName  string `json:"modelName"`
	Seed       *int64 `json:"seed"`
}

type GenerationMetadataInfo struct {
	StyleId    string     `json:"styleId"`
	ConfigUsed ConfigUsed `json:"configUsed"`
}

type GenerateData struct {
	Timestamp          string                 `json:"timestamp"`
	Sketches           []Sketch               `json:"sketches"`
	GenerationMetadata GenerationMetadataInfo `json:"generationMetadata"`
}

type GenerateResponse struct {
	Success bool          `json:"success"`
	Data    *GenerateData `json:"data"`
}

// Streaming event payloads. Each struct is the data half of one SSE frame;
// the frame's event name is carried separately.

type StreamPromptCompiled struct {
	Stage         string `json:"stage"`
	RefinedIntent string `json:"refinedIntent"`
}

type StreamRagComplete struct {
	Stage          string `json:"stage"`
	ReferenceCount int    `json:"referenceCount"`
}

type StreamRetry struct {
	Stage      string `json:"stage"`
	Index      int    `json:"index"`
	Attempt    int    `json:"attempt"`
	MaxRetries int    `json:"maxRetries"`
}

type StreamImage struct {
	Index  int     `json:"index"`
	Sketch *Sketch `json:"sketch"`
	Error  string  `json:"error,omitempty"`
}

type StreamComplete struct {
	Timestamp    string `json:"timestamp"`
	TotalImages  int    `json:"totalImages"`
	SuccessCount int    `json:"successCount"`
	StyleId      string `json:"styleId"`
}

type StreamError struct {
	Message string `json:"message"`
}
