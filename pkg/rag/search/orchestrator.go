package search

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/pkg/embedding"
	"github.com/clairexuu/SWAG-Golf/pkg/rag"
	"github.com/clairexuu/SWAG-Golf/pkg/rag/index"
)

// Orchestrator handles similarity scoring and candidate filtering over one
// style's embedding index.
type Orchestrator struct {
	indexes  *index.Registry
	embedder embedding.Provider
	logger   *log.Logger
}

// NewOrchestrator creates a new retrieval orchestrator
func NewOrchestrator(indexes *index.Registry, embedder embedding.Provider, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		indexes:  indexes,
		embedder: embedder,
		logger:   logger,
	}
}

// Config encapsulates retrieval parameters
type Config struct {
	TopK            int
	MinSimilarity   float64
	IncludeNegative bool
}

// DefaultConfig returns default retrieval configuration
func DefaultConfig() Config {
	return Config{
		TopK:            5,
		MinSimilarity:   0.0,
		IncludeNegative: false,
	}
}

// Execute scores every reference image in the style's index against the
// prompt and returns the filtered top candidates. The topK cut applies after
// the threshold and exclusion filters, so the result is always the K
// highest-scoring eligible images.
func (o *Orchestrator) Execute(
	ctx context.Context,
	spec entity.PromptSpec,
	style *entity.Style,
	config Config,
) (*rag.RetrievalResult, error) {

	queryText := spec.RefinedIntent
	if queryText == "" {
		o.logger.Printf("[WARN] PromptSpec has no refined intent, falling back to raw intent for retrieval")
		queryText = spec.Intent
	}
	if queryText == "" {
		return nil, fmt.Errorf("prompt spec has neither refined intent nor intent")
	}

	embeddings, err := o.indexes.GetEmbeddings(style.Id)
	if err != nil {
		return nil, err
	}

	if len(embeddings) == 0 {
		o.logger.Printf("[WARN] Style %s has an empty index, returning no candidates", style.Id)
		return &rag.RetrievalResult{
			Images: []rag.ReferenceImage{},
			Scores: []float64{},
			QueryContext: map[string]interface{}{
				"styleId": style.Id,
				"intent":  spec.Intent,
				"topK":    config.TopK,
			},
		}, nil
	}

	queryVec, err := o.embedder.EmbedText(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored := make([]scoredCandidate, len(embeddings))
	for i, emb := range embeddings {
		scored[i] = scoredCandidate{
			embedding: emb,
			score:     rag.CosineSimilarity(queryVec, emb.Vector),
		}
	}

	// Stable sort keeps index order among tied scores, which keeps retrieval
	// deterministic across calls.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	o.logger.Printf("[DEBUG] Scored %d candidates for style %s", len(scored), style.Id)

	images, scores := o.filterCandidates(scored, style, config)

	o.logger.Printf("[DEBUG] Retrieval kept %d of %d candidates", len(images), len(scored))

	return &rag.RetrievalResult{
		Images: images,
		Scores: scores,
		QueryContext: map[string]interface{}{
			"styleId":         style.Id,
			"intent":          spec.Intent,
			"refinedIntent":   spec.RefinedIntent,
			"topK":            config.TopK,
			"totalCandidates": len(scored),
		},
	}, nil
}

type scoredCandidate struct {
	embedding rag.Embedding
	score     float64
}

// filterCandidates applies the similarity threshold, the style's exclusion
// list, and the topK cut, in that order, over candidates already sorted by
// score.
func (o *Orchestrator) filterCandidates(
	scored []scoredCandidate,
	style *entity.Style,
	config Config,
) ([]rag.ReferenceImage, []float64) {

	excluded := style.ExclusionSet()

	var images []rag.ReferenceImage
	var scores []float64

	for i, cand := range scored {
		if cand.score < config.MinSimilarity {
			o.logger.Printf("[DEBUG] Candidate %d: Score=%.4f [BELOW THRESHOLD]", i+1, cand.score)
			continue
		}

		if !config.IncludeNegative {
			if _, ok := excluded[cand.embedding.ImagePath]; ok {
				o.logger.Printf("[DEBUG] Candidate %d: Score=%.4f [EXCLUDED]", i+1, cand.score)
				continue
			}
		}

		if len(images) >= config.TopK {
			break
		}

		images = append(images, rag.ReferenceImage{
			Path:    cand.embedding.ImagePath,
			StyleId: cand.embedding.StyleId,
		})
		scores = append(scores, cand.score)

		o.logger.Printf("[DEBUG] Candidate %d: Score=%.4f [KEEP]", i+1, cand.score)
	}

	if images == nil {
		images = []rag.ReferenceImage{}
		scores = []float64{}
	}

	return images, scores
}
