package search

import (
	"context"
	"errors"
	"io"
	"log"
	"reflect"
	"testing"

	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/pkg/rag/index"
)

type stubEmbedder struct {
	queryVec []float32
	vectors  map[string][]float32
}

func (s *stubEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.New("cannot embed empty text")
	}
	return s.queryVec, nil
}

func (s *stubEmbedder) EmbedImage(_ context.Context, imagePath string) ([]float32, error) {
	if v, ok := s.vectors[imagePath]; ok {
		return v, nil
	}
	return make([]float32, len(s.queryVec)), nil
}

func (s *stubEmbedder) ModelID() string { return "clip-test" }
func (s *stubEmbedder) Dim() int        { return len(s.queryVec) }

// buildFixture returns an orchestrator whose index holds the given
// image->vector mapping for styleId, with the query embedding fixed.
func buildFixture(t *testing.T, styleId string, queryVec []float32, images []string, vectors map[string][]float32) (*Orchestrator, *entity.Style) {
	t.Helper()

	embedder := &stubEmbedder{queryVec: queryVec, vectors: vectors}
	logger := log.New(io.Discard, "", 0)
	registry := index.NewRegistry(embedder, t.TempDir(), logger)

	style := &entity.Style{Id: styleId, Name: styleId, ReferenceImages: images}
	if _, err := registry.Build(context.Background(), style); err != nil {
		t.Fatalf("building fixture index: %v", err)
	}

	return NewOrchestrator(registry, embedder, logger), style
}

func TestExecuteOrdersByScoreDescending(t *testing.T) {
	query := []float32{1, 0}
	orch, style := buildFixture(t, "bold", query,
		[]string{"low.png", "high.png", "mid.png"},
		map[string][]float32{
			"low.png":  {0.1, 0.9},
			"high.png": {1, 0},
			"mid.png":  {0.7, 0.3},
		})

	res, err := orch.Execute(context.Background(), entity.PromptSpec{RefinedIntent: "a skull"}, style, DefaultConfig())
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	want := []string{"high.png", "mid.png", "low.png"}
	if !reflect.DeepEqual(res.ImagePaths(), want) {
		t.Errorf("Execute() order = %v, want %v", res.ImagePaths(), want)
	}
	for i := 1; i < len(res.Scores); i++ {
		if res.Scores[i] > res.Scores[i-1] {
			t.Errorf("Scores not descending: %v", res.Scores)
		}
	}
	if len(res.Scores) != len(res.Images) {
		t.Errorf("len(Scores)=%d, len(Images)=%d, want equal", len(res.Scores), len(res.Images))
	}
}

func TestExecuteTiesKeepIndexOrder(t *testing.T) {
	query := []float32{1, 0}
	orch, style := buildFixture(t, "bold", query,
		[]string{"first.png", "second.png", "third.png"},
		map[string][]float32{
			"first.png":  {1, 0},
			"second.png": {1, 0},
			"third.png":  {1, 0},
		})

	res, err := orch.Execute(context.Background(), entity.PromptSpec{RefinedIntent: "a skull"}, style, DefaultConfig())
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	want := []string{"first.png", "second.png", "third.png"}
	if !reflect.DeepEqual(res.ImagePaths(), want) {
		t.Errorf("tied scores must keep index order, got %v", res.ImagePaths())
	}
}

func TestExecuteMinSimilarityFilter(t *testing.T) {
	query := []float32{1, 0}
	orch, style := buildFixture(t, "bold", query,
		[]string{"close.png", "far.png"},
		map[string][]float32{
			"close.png": {1, 0},
			"far.png":   {0, 1},
		})

	config := DefaultConfig()
	config.MinSimilarity = 0.5

	res, err := orch.Execute(context.Background(), entity.PromptSpec{RefinedIntent: "a skull"}, style, config)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if !reflect.DeepEqual(res.ImagePaths(), []string{"close.png"}) {
		t.Errorf("Execute() = %v, want only close.png above 0.5", res.ImagePaths())
	}
}

func TestExecuteExclusionBeforeTopK(t *testing.T) {
	query := []float32{1, 0}
	vectors := map[string][]float32{
		"a.png": {1, 0},
		"b.png": {0.9, 0.1},
		"c.png": {0.8, 0.2},
		"d.png": {0.7, 0.3},
	}
	orch, style := buildFixture(t, "bold", query,
		[]string{"a.png", "b.png", "c.png", "d.png"}, vectors)
	style.DoNotUse = []string{"b.png"}

	config := DefaultConfig()
	config.TopK = 3

	res, err := orch.Execute(context.Background(), entity.PromptSpec{RefinedIntent: "a skull"}, style, config)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	// b.png is excluded before the cut, so d.png takes the third slot.
	want := []string{"a.png", "c.png", "d.png"}
	if !reflect.DeepEqual(res.ImagePaths(), want) {
		t.Errorf("Execute() = %v, want %v", res.ImagePaths(), want)
	}
}

func TestExecuteIncludeNegative(t *testing.T) {
	query := []float32{1, 0}
	orch, style := buildFixture(t, "bold", query,
		[]string{"a.png", "b.png"},
		map[string][]float32{
			"a.png": {1, 0},
			"b.png": {0.9, 0.1},
		})
	style.DoNotUse = []string{"b.png"}

	config := DefaultConfig()
	config.IncludeNegative = true

	res, err := orch.Execute(context.Background(), entity.PromptSpec{RefinedIntent: "a skull"}, style, config)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if len(res.Images) != 2 {
		t.Errorf("IncludeNegative must keep excluded images, got %v", res.ImagePaths())
	}
}

func TestExecuteTopKTruncation(t *testing.T) {
	query := []float32{1, 0}
	vectors := make(map[string][]float32)
	images := []string{"a.png", "b.png", "c.png", "d.png", "e.png", "f.png", "g.png"}
	for i, img := range images {
		vectors[img] = []float32{1 - float32(i)*0.1, float32(i) * 0.1}
	}
	orch, style := buildFixture(t, "bold", query, images, vectors)

	config := DefaultConfig()
	config.TopK = 5

	res, err := orch.Execute(context.Background(), entity.PromptSpec{RefinedIntent: "a skull"}, style, config)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if len(res.Images) != 5 {
		t.Errorf("Execute() returned %d images, want topK=5", len(res.Images))
	}
}

func TestExecuteFewerCandidatesThanTopK(t *testing.T) {
	query := []float32{1, 0}
	orch, style := buildFixture(t, "bold", query,
		[]string{"only.png"},
		map[string][]float32{"only.png": {1, 0}})

	res, err := orch.Execute(context.Background(), entity.PromptSpec{RefinedIntent: "a skull"}, style, DefaultConfig())
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(res.Images) != 1 {
		t.Errorf("Execute() = %d images, want the 1 available", len(res.Images))
	}
}

func TestExecuteEmptyIndex(t *testing.T) {
	orch, style := buildFixture(t, "empty", []float32{1, 0}, nil, nil)

	res, err := orch.Execute(context.Background(), entity.PromptSpec{RefinedIntent: "a skull"}, style, DefaultConfig())
	if err != nil {
		t.Fatalf("Execute() on empty index must not error, got %v", err)
	}
	if len(res.Images) != 0 || len(res.Scores) != 0 {
		t.Errorf("Execute() on empty index = %d images, want 0", len(res.Images))
	}
	if res.QueryContext["styleId"] != "empty" {
		t.Errorf("QueryContext missing styleId, got %v", res.QueryContext)
	}
}

func TestExecuteNotBuiltPropagates(t *testing.T) {
	embedder := &stubEmbedder{queryVec: []float32{1, 0}}
	logger := log.New(io.Discard, "", 0)
	registry := index.NewRegistry(embedder, t.TempDir(), logger)
	orch := NewOrchestrator(registry, embedder, logger)

	style := &entity.Style{Id: "never-built"}
	_, err := orch.Execute(context.Background(), entity.PromptSpec{RefinedIntent: "a skull"}, style, DefaultConfig())

	var notBuilt *index.NotBuiltError
	if !errors.As(err, &notBuilt) {
		t.Fatalf("Execute() without a built index = %v, want NotBuiltError", err)
	}
}

func TestExecuteFallsBackToIntent(t *testing.T) {
	query := []float32{1, 0}
	orch, style := buildFixture(t, "bold", query,
		[]string{"a.png"},
		map[string][]float32{"a.png": {1, 0}})

	res, err := orch.Execute(context.Background(), entity.PromptSpec{Intent: "raw user words"}, style, DefaultConfig())
	if err != nil {
		t.Fatalf("Execute() with only raw intent: %v", err)
	}
	if len(res.Images) != 1 {
		t.Errorf("fallback query returned %d images, want 1", len(res.Images))
	}

	_, err = orch.Execute(context.Background(), entity.PromptSpec{}, style, DefaultConfig())
	if err == nil {
		t.Error("Execute() with no intent at all should error")
	}
}

func TestExecuteDeterministic(t *testing.T) {
	query := []float32{0.6, 0.4}
	vectors := map[string][]float32{
		"a.png": {0.5, 0.5},
		"b.png": {0.5, 0.5},
		"c.png": {0.9, 0.1},
	}
	orch, style := buildFixture(t, "bold", query, []string{"a.png", "b.png", "c.png"}, vectors)

	first, err := orch.Execute(context.Background(), entity.PromptSpec{RefinedIntent: "a skull"}, style, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		again, err := orch.Execute(context.Background(), entity.PromptSpec{RefinedIntent: "a skull"}, style, DefaultConfig())
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(again.ImagePaths(), first.ImagePaths()) {
			t.Fatalf("run %d order %v differs from first %v", i, again.ImagePaths(), first.ImagePaths())
		}
	}
}

func TestRetrievalResultShapeParity(t *testing.T) {
	query := []float32{1, 0}
	orch, style := buildFixture(t, "bold", query,
		[]string{"a.png", "b.png", "c.png"},
		map[string][]float32{
			"a.png": {1, 0},
			"b.png": {0, 1},
			"c.png": {0.5, 0.5},
		})

	config := DefaultConfig()
	config.MinSimilarity = 0.3

	res, err := orch.Execute(context.Background(), entity.PromptSpec{RefinedIntent: "a skull"}, style, config)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Images) != len(res.Scores) {
		t.Errorf("Images and Scores diverge: %d vs %d", len(res.Images), len(res.Scores))
	}
	if got, ok := res.QueryContext["totalCandidates"].(int); !ok || got != 3 {
		t.Errorf("QueryContext[totalCandidates] = %v, want 3", res.QueryContext["totalCandidates"])
	}
}
