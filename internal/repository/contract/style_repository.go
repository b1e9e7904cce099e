package contract

import (
	"context"
	"fmt"

	"github.com/clairexuu/SWAG-Golf/internal/entity"
)

// StyleNotFoundError reports a style id with no style.json in the library.
type StyleNotFoundError struct {
	StyleId string
}

func (e *StyleNotFoundError) Error() string {
	return fmt.Sprintf("style not found: %s", e.StyleId)
}

type StyleRepository interface {
	GetStyle(ctx context.Context, styleId string) (*entity.Style, error)
	GetAll(ctx context.Context) ([]*entity.Style, error)
	ListIds(ctx context.Context) ([]string, error)
	Create(ctx context.Context, name, description string, rules *entity.VisualRules) (*entity.Style, error)
	ImportReferenceImages(ctx context.Context, styleId string, sourcePaths []string) (added int, skipped int, err error)
	// SetFeedbackSummary replaces the stored summary. The summarizer already
	// folds the previous summary into the new one.
	SetFeedbackSummary(ctx context.Context, styleId string, summary string) error
	// Invalidate drops the cached style so the next read reloads from disk.
	Invalidate(styleId string)
}
