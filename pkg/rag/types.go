package rag

// Embedding stores one reference image's vector. Vectors are unit-normalized
// and immutable once computed; they are owned by the style's index.
type Embedding struct {
	ImagePath string    `json:"imagePath"`
	Vector    []float32 `json:"vector"`
	StyleId   string    `json:"styleId"`
}

// ReferenceImage is one retrieved candidate handed to generation.
type ReferenceImage struct {
	Path      string                 `json:"path"`
	StyleId   string                 `json:"styleId"`
	Embedding []float32              `json:"-"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// RetrievalResult pairs retrieved images with their similarity scores.
// Images[i] corresponds to Scores[i]; scores are cosine similarities in
// [-1,1], non-increasing.
type RetrievalResult struct {
	Images       []ReferenceImage       `json:"images"`
	Scores       []float64              `json:"scores"`
	QueryContext map[string]interface{} `json:"queryContext"`
}

// ImagePaths returns the retrieved image paths in rank order.
func (r *RetrievalResult) ImagePaths() []string {
	paths := make([]string, len(r.Images))
	for i, img := range r.Images {
		paths[i] = img.Path
	}
	return paths
}
