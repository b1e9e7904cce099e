package contract

import (
	"context"

	"github.com/clairexuu/SWAG-Golf/internal/entity"
)

type HistoryRepository interface {
	// SaveMetadata writes the batch document into outputDir and returns the
	// metadata file path.
	SaveMetadata(ctx context.Context, outputDir string, meta *entity.GenerationMetadata) (string, error)
	// List scans generation directories newest-first, skipping entries with
	// missing or corrupt metadata. An empty styleId lists all styles.
	List(ctx context.Context, styleId string, limit int) ([]*entity.GenerationRecord, error)
	// Prune removes the oldest generation directories of a style beyond
	// keep, returning how many were removed.
	Prune(ctx context.Context, styleId string, keep int) (int, error)
}
