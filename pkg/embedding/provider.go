package embedding

import "context"

// Provider defines the interface for the embedding model used by the
// similarity index. Text and image embeddings must live in the same vector
// space so a text query can rank reference images.
type Provider interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, imagePath string) ([]float32, error)

	// ModelID and Dim identify the active model; cached embeddings carry the
	// same identity so a model swap is detected as a stale index instead of
	// silently mixing vector spaces.
	ModelID() string
	Dim() int
}
