package mapper

import (
	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/internal/model"
)

// GenerationMapper converts generation metadata entities into their on-disk
// documents. Reads stay at the document level; history listings project the
// few fields they need without rebuilding the entity.
type GenerationMapper struct{}

func NewGenerationMapper() *GenerationMapper {
	return &GenerationMapper{}
}

func (m *GenerationMapper) ToDocument(meta *entity.GenerationMetadata) *model.GenerationMetadataDocument {
	if meta == nil {
		return nil
	}

	return &model.GenerationMetadataDocument{
		Timestamp:       meta.Timestamp,
		Archived:        meta.Archived,
		Mode:            meta.Mode,
		UserPrompt:      meta.UserPrompt,
		CompiledPrompt:  meta.CompiledPrompt,
		RefinePrompt:    meta.RefinePrompt,
		OriginalContext: meta.OriginalContext,
		RefineHistory:   meta.RefineHistory,
		SourceImages:    meta.SourceImages,
		Style:           model.StyleRefDocument{Id: meta.Style.Id, Name: meta.Style.Name},
		PromptSpec:      promptSpecToDocument(meta.PromptSpec),
		ReferenceImages: meta.ReferenceImages,
		RetrievalScores: meta.RetrievalScores,
		Config:          configToDocument(meta.Config),
		Images:          meta.Images,
		ImageErrors:     meta.ImageErrors,
	}
}

func promptSpecToDocument(spec *entity.PromptSpec) *model.PromptSpecDocument {
	if spec == nil {
		return nil
	}
	return &model.PromptSpecDocument{
		Intent:              spec.Intent,
		RefinedIntent:       spec.RefinedIntent,
		StyleId:             spec.StyleId,
		VisualConstraints:   spec.VisualConstraints,
		NegativeConstraints: spec.NegativeConstraints,
		Placement:           spec.Placement,
		SubjectMatter:       spec.SubjectMatter,
		Mood:                spec.Mood,
		Technique:           spec.Technique,
		Fidelity:            spec.Fidelity,
		CompositionNotes:    spec.CompositionNotes,
		ColorGuidance:       spec.ColorGuidance,
	}
}

func configToDocument(c entity.GenerationConfig) model.GenerationConfigDocument {
	return model.GenerationConfigDocument{
		NumImages:        c.NumImages,
		Resolution:       c.Resolution,
		ModelName:        c.ModelName,
		Seed:             c.Seed,
		AspectRatio:      c.AspectRatio,
		EnforceGrayscale: c.EnforceGrayscale,
	}
}
