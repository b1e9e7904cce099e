package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/internal/model"
)

func writeGeneration(t *testing.T, root, dirName, styleId, userPrompt string, images []string) {
	t.Helper()
	doc := model.GenerationMetadataDocument{
		Timestamp:   dirName,
		UserPrompt:  userPrompt,
		Style:       model.StyleRefDocument{Id: styleId, Name: styleId},
		Config:      model.GenerationConfigDocument{NumImages: len(images), Resolution: [2]int{1024, 1024}},
		Images:      images,
		ImageErrors: []string{},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("marshal metadata: %v", err)
	}
	writeFileT(t, filepath.Join(root, dirName, "metadata.json"), data)
}

func TestListNewestFirst(t *testing.T) {
	root := t.TempDir()
	repo := NewHistoryRepository(root)

	writeGeneration(t, root, "20250101_000000", "bold", "first", []string{"sketch_0.png"})
	writeGeneration(t, root, "20250103_000000", "bold", "third", []string{"sketch_0.png"})
	writeGeneration(t, root, "20250102_000000", "bold", "second", []string{"sketch_0.png"})

	records, err := repo.List(context.Background(), "", 100)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []string{"third", "second", "first"}
	if len(records) != len(want) {
		t.Fatalf("List() count = %d, want %d", len(records), len(want))
	}
	for i, rec := range records {
		if rec.UserPrompt != want[i] {
			t.Errorf("records[%d].UserPrompt = %q, want %q", i, rec.UserPrompt, want[i])
		}
	}
	if records[0].DirName != "20250103_000000" {
		t.Errorf("records[0].DirName = %q, want %q", records[0].DirName, "20250103_000000")
	}
	if records[0].ImageCount != 1 {
		t.Errorf("records[0].ImageCount = %d, want 1", records[0].ImageCount)
	}
}

func TestListFiltersByStyle(t *testing.T) {
	root := t.TempDir()
	repo := NewHistoryRepository(root)

	writeGeneration(t, root, "20250101_000000", "bold", "bold one", nil)
	writeGeneration(t, root, "20250102_000000", "vintage", "vintage one", nil)
	writeGeneration(t, root, "20250103_000000", "bold", "bold two", nil)

	records, err := repo.List(context.Background(), "bold", 100)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("List(bold) count = %d, want 2", len(records))
	}
	for _, rec := range records {
		if rec.Style.Id != "bold" {
			t.Errorf("Style.Id = %q, want bold", rec.Style.Id)
		}
	}
}

func TestListSkipsBrokenEntries(t *testing.T) {
	root := t.TempDir()
	repo := NewHistoryRepository(root)

	writeGeneration(t, root, "20250105_000000", "bold", "good", nil)
	// Corrupt metadata.
	writeFileT(t, filepath.Join(root, "20250104_000000", "metadata.json"), []byte("{nope"))
	// Directory without metadata.
	if err := os.MkdirAll(filepath.Join(root, "20250103_000000"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Stray file at the top level.
	writeFileT(t, filepath.Join(root, "notes.txt"), []byte("hi"))
	// Metadata without any prompt.
	writeGeneration(t, root, "20250102_000000", "bold", "", nil)

	records, err := repo.List(context.Background(), "", 100)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("List() count = %d, want 1", len(records))
	}
	if records[0].UserPrompt != "good" {
		t.Errorf("UserPrompt = %q, want %q", records[0].UserPrompt, "good")
	}
}

func TestListRefinePromptFallback(t *testing.T) {
	root := t.TempDir()
	repo := NewHistoryRepository(root)

	doc := model.GenerationMetadataDocument{
		Timestamp:    "20250110_101010",
		Mode:         "refine",
		RefinePrompt: "make the lines thicker",
		Style:        model.StyleRefDocument{Id: "bold", Name: "Bold"},
		Images:       []string{"sketch_0.png"},
		ImageErrors:  []string{},
	}
	data, _ := json.Marshal(doc)
	writeFileT(t, filepath.Join(root, "20250110_101010", "metadata.json"), data)

	records, err := repo.List(context.Background(), "", 100)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("List() count = %d, want 1", len(records))
	}
	if records[0].UserPrompt != "make the lines thicker" {
		t.Errorf("UserPrompt = %q, want refine prompt fallback", records[0].UserPrompt)
	}
}

func TestListHonorsLimit(t *testing.T) {
	root := t.TempDir()
	repo := NewHistoryRepository(root)

	dirs := []string{"20250101_000000", "20250102_000000", "20250103_000000", "20250104_000000", "20250105_000000"}
	for _, d := range dirs {
		writeGeneration(t, root, d, "bold", "p "+d, nil)
	}

	records, err := repo.List(context.Background(), "", 3)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("List() count = %d, want 3", len(records))
	}
	if records[0].DirName != "20250105_000000" {
		t.Errorf("records[0].DirName = %q, want newest", records[0].DirName)
	}
}

func TestListMissingRoot(t *testing.T) {
	repo := NewHistoryRepository(filepath.Join(t.TempDir(), "never_created"))

	records, err := repo.List(context.Background(), "", 100)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("List() count = %d, want 0", len(records))
	}
}

func TestPruneRemovesOldestBeyondKeep(t *testing.T) {
	root := t.TempDir()
	repo := NewHistoryRepository(root)

	// Seven bold generations, one vintage older than all of them.
	writeGeneration(t, root, "20250100_000000", "vintage", "keep me", nil)
	dirs := []string{
		"20250101_000000", "20250102_000000", "20250103_000000",
		"20250104_000000", "20250105_000000", "20250106_000000", "20250107_000000",
	}
	for _, d := range dirs {
		writeGeneration(t, root, d, "bold", "p", nil)
	}

	removed, err := repo.Prune(context.Background(), "bold", 5)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune() removed = %d, want 2", removed)
	}

	// The two oldest bold dirs are gone.
	for _, d := range []string{"20250101_000000", "20250102_000000"} {
		if _, err := os.Stat(filepath.Join(root, d)); !os.IsNotExist(err) {
			t.Errorf("dir %s still exists after prune", d)
		}
	}
	// Newest five bold dirs and the other style survive.
	for _, d := range append(dirs[2:], "20250100_000000") {
		if _, err := os.Stat(filepath.Join(root, d)); err != nil {
			t.Errorf("dir %s missing after prune: %v", d, err)
		}
	}
}

func TestPruneUnderKeepIsNoop(t *testing.T) {
	root := t.TempDir()
	repo := NewHistoryRepository(root)

	writeGeneration(t, root, "20250101_000000", "bold", "p", nil)

	removed, err := repo.Prune(context.Background(), "bold", 100)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("Prune() removed = %d, want 0", removed)
	}
}

func TestSaveMetadataWritesSnakeCaseDocument(t *testing.T) {
	root := t.TempDir()
	repo := NewHistoryRepository(root)

	outputDir := filepath.Join(root, "20250111_121212")
	meta := &entity.GenerationMetadata{
		Timestamp:  "20250111_121212",
		UserPrompt: "angry beaver mascot",
		Style:      entity.StyleRef{Id: "bold", Name: "Bold"},
		PromptSpec: &entity.PromptSpec{Intent: "angry beaver mascot", RefinedIntent: "snarling beaver"},
		Config:     entity.GenerationConfig{NumImages: 4, Resolution: [2]int{1024, 1024}, ModelName: "gemini-2.5-flash-image", AspectRatio: "1:1"},
		Images:     []string{"sketch_0.png", "sketch_1.png"},
		ImageErrors: []string{
			"generation failed after 3 attempts",
		},
	}

	path, err := repo.SaveMetadata(context.Background(), outputDir, meta)
	if err != nil {
		t.Fatalf("SaveMetadata() error = %v", err)
	}
	if filepath.Base(path) != "metadata.json" {
		t.Errorf("metadata path = %q, want metadata.json", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal metadata: %v", err)
	}
	for _, key := range []string{"timestamp", "user_prompt", "style", "prompt_spec", "config", "images", "image_errors"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("metadata.json missing key %q", key)
		}
	}

	records, err := repo.List(context.Background(), "bold", 100)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 || records[0].UserPrompt != "angry beaver mascot" {
		t.Fatalf("List() after save = %+v, want one record with the saved prompt", records)
	}
}
