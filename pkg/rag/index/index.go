package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/pkg/embedding"
	"github.com/clairexuu/SWAG-Golf/pkg/rag"

	"github.com/patrickmn/go-cache"
)

// NotBuiltError means no embeddings exist for a style. Index construction is
// an explicit, out-of-band operation because it is expensive; retrieval must
// never build on read.
type NotBuiltError struct {
	StyleId string
}

func (e *NotBuiltError) Error() string {
	return fmt.Sprintf(
		"no embeddings index for style %q, run: sketchctl index build --style %s",
		e.StyleId, e.StyleId,
	)
}

// StaleError means the cached embeddings were produced by a different
// embedding model than the active one. The index fails closed rather than
// returning vectors from a mismatched space.
type StaleError struct {
	StyleId     string
	CachedModel string
	CachedDim   int
	WantModel   string
	WantDim     int
}

func (e *StaleError) Error() string {
	return fmt.Sprintf(
		"stale embeddings index for style %q (cached %s/%d dims, active %s/%d dims), run: sketchctl index build --style %s",
		e.StyleId, e.CachedModel, e.CachedDim, e.WantModel, e.WantDim, e.StyleId,
	)
}

// StyleIndex is one style's immutable embedding snapshot. Rebuilds produce a
// new snapshot and swap it in whole, so concurrent readers never observe a
// partially rebuilt index.
type StyleIndex struct {
	StyleId    string          `json:"styleId"`
	ModelId    string          `json:"modelId"`
	Dim        int             `json:"dim"`
	CreatedAt  string          `json:"createdAt"`
	Embeddings []rag.Embedding `json:"embeddings"`
}

// Registry owns the per-style similarity indices: an in-memory cache over
// one JSON document per style under cacheDir.
type Registry struct {
	embedder embedding.Provider
	cacheDir string
	indices  *cache.Cache
	logger   *log.Logger
}

func NewRegistry(embedder embedding.Provider, cacheDir string, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		embedder: embedder,
		cacheDir: cacheDir,
		indices:  cache.New(cache.NoExpiration, 0),
		logger:   logger,
	}
}

// GetEmbeddings returns the style's cached embedding set. It loads the disk
// snapshot on first access but never computes embeddings: a missing snapshot
// is a NotBuiltError, a model mismatch a StaleError.
func (r *Registry) GetEmbeddings(styleId string) ([]rag.Embedding, error) {
	if v, found := r.indices.Get(styleId); found {
		snap := v.(*StyleIndex)
		if err := r.checkFreshness(snap); err != nil {
			return nil, err
		}
		return snap.Embeddings, nil
	}

	snap, err := r.loadSnapshot(styleId)
	if err != nil {
		return nil, err
	}
	if err := r.checkFreshness(snap); err != nil {
		return nil, err
	}

	r.indices.Set(styleId, snap, cache.NoExpiration)
	return snap.Embeddings, nil
}

// Build computes one embedding per reference image, persists the snapshot,
// and swaps it into the in-memory cache. Any embedding failure aborts the
// build and leaves the previous snapshot untouched.
func (r *Registry) Build(ctx context.Context, style *entity.Style) ([]rag.Embedding, error) {
	if len(style.ReferenceImages) == 0 {
		r.logger.Printf("[WARN] Style %s has no reference images, building empty index", style.Id)
	}

	embeddings := make([]rag.Embedding, 0, len(style.ReferenceImages))
	for _, imgPath := range style.ReferenceImages {
		vector, err := r.embedder.EmbedImage(ctx, imgPath)
		if err != nil {
			return nil, fmt.Errorf("embed %s: %w", imgPath, err)
		}
		if len(vector) != r.embedder.Dim() {
			return nil, fmt.Errorf("embed %s: got %d dims, expected %d", imgPath, len(vector), r.embedder.Dim())
		}
		embeddings = append(embeddings, rag.Embedding{
			ImagePath: imgPath,
			Vector:    vector,
			StyleId:   style.Id,
		})
	}

	snap := &StyleIndex{
		StyleId:    style.Id,
		ModelId:    r.embedder.ModelID(),
		Dim:        r.embedder.Dim(),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Embeddings: embeddings,
	}

	if err := r.saveSnapshot(snap); err != nil {
		return nil, err
	}

	// Swap-on-complete: readers holding the old snapshot are unaffected.
	r.indices.Set(style.Id, snap, cache.NoExpiration)

	r.logger.Printf("[INFO] Built index for style %s: %d embeddings", style.Id, len(embeddings))
	return embeddings, nil
}

// Invalidate drops a style's in-memory snapshot. Callers invalidate whenever
// the underlying image set changes; the disk snapshot stays until the next
// Build overwrites it.
func (r *Registry) Invalidate(styleId string) {
	r.indices.Delete(styleId)
}

// ClearCache removes both the in-memory snapshot and the disk document.
func (r *Registry) ClearCache(styleId string) error {
	r.indices.Delete(styleId)
	err := os.Remove(r.snapshotPath(styleId))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (r *Registry) checkFreshness(snap *StyleIndex) error {
	if snap.Dim != r.embedder.Dim() || (snap.ModelId != "" && snap.ModelId != r.embedder.ModelID()) {
		return &StaleError{
			StyleId:     snap.StyleId,
			CachedModel: snap.ModelId,
			CachedDim:   snap.Dim,
			WantModel:   r.embedder.ModelID(),
			WantDim:     r.embedder.Dim(),
		}
	}
	return nil
}

func (r *Registry) snapshotPath(styleId string) string {
	return filepath.Join(r.cacheDir, styleId+"_embeddings.json")
}

func (r *Registry) loadSnapshot(styleId string) (*StyleIndex, error) {
	raw, err := os.ReadFile(r.snapshotPath(styleId))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotBuiltError{StyleId: styleId}
		}
		return nil, err
	}

	var snap StyleIndex
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("corrupted embeddings index for style %q: %w", styleId, err)
	}
	return &snap, nil
}

func (r *Registry) saveSnapshot(snap *StyleIndex) error {
	if err := os.MkdirAll(r.cacheDir, 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.snapshotPath(snap.StyleId), raw, 0o644)
}
