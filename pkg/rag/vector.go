package rag

import (
	"math"
	"os"
	"path/filepath"
	"strings"
)

// CosineSimilarity returns the cosine of the angle between two vectors, in
// [-1,1]. Mismatched lengths or zero-norm vectors score 0 rather than
// erroring: a degenerate candidate should rank last, not kill the query.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var validImageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".webp": {},
}

// ValidateImagePath reports whether the path exists and carries an image
// extension the embedder accepts.
func ValidateImagePath(imagePath string) bool {
	ext := strings.ToLower(filepath.Ext(imagePath))
	if _, ok := validImageExtensions[ext]; !ok {
		return false
	}
	if _, err := os.Stat(imagePath); err != nil {
		return false
	}
	return true
}
