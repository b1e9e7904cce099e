package mapper

import (
	"path/filepath"

	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/internal/model"
)

// StyleMapper converts between the on-disk style document and the domain
// entity. Documents store bare image filenames; entities carry full paths
// under the shared reference images directory.
type StyleMapper struct {
	refImagesDir string
}

func NewStyleMapper(refImagesDir string) *StyleMapper {
	return &StyleMapper{refImagesDir: refImagesDir}
}

func (m *StyleMapper) ToEntity(styleId string, doc *model.StyleDocument) *entity.Style {
	if doc == nil {
		return nil
	}

	refs := make([]string, len(doc.ReferenceImages))
	for i, name := range doc.ReferenceImages {
		refs[i] = filepath.Join(m.refImagesDir, name)
	}

	doNotUse := make([]string, len(doc.DoNotUse))
	for i, name := range doc.DoNotUse {
		doNotUse[i] = filepath.Join(m.refImagesDir, name)
	}

	return &entity.Style{
		Id:          styleId,
		Name:        doc.Name,
		Description: doc.Description,
		VisualRules: entity.VisualRules{
			LineWeight:      doc.VisualRules.LineWeight,
			Looseness:       doc.VisualRules.Looseness,
			Complexity:      doc.VisualRules.Complexity,
			AdditionalRules: doc.VisualRules.AdditionalRules,
		},
		ReferenceImages: refs,
		DoNotUse:        doNotUse,
		FeedbackSummary: doc.FeedbackSummary,
	}
}
