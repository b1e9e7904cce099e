package dto

type VisualRulesInfo struct {
	LineWeight      string   `json:"lineWeight"`
	Looseness       string   `json:"looseness"`
	Complexity      string   `json:"complexity"`
	AdditionalRules []string `json:"additionalRules"`
}

// StyleResponse is one entry of GET /styles. ReferenceImages and DoNotUse
// are always empty on the wire: the frontend has no use for server-side
// image paths.
type StyleResponse struct {
	Id              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	VisualRules     VisualRulesInfo `json:"visualRules"`
	ReferenceImages []string        `json:"referenceImages"`
	DoNotUse        []string        `json:"doNotUse"`
}

type StylesResponse struct {
	Success bool             `json:"success"`
	Styles  []*StyleResponse `json:"styles"`
}

type CreateStyleRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	LineWeight  string   `json:"lineWeight"`
	Looseness   string   `json:"looseness"`
	Complexity  string   `json:"complexity"`
	ImagePaths  []string `json:"imagePaths"`
}

type ImportImagesResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// EmbedStyleImagesMessage is the rebuild request published whenever a
// style's reference image set changes. The consumer re-embeds the style's
// images and swaps the similarity index.
type EmbedStyleImagesMessage struct {
	StyleId string `json:"style_id"`
}
