package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/internal/repository/filestore"
)

func TestHistoryServiceList(t *testing.T) {
	root := t.TempDir()
	repo := filestore.NewHistoryRepository(root)
	svc := NewHistoryService(repo)

	resp, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !resp.Success || resp.Total != 0 || resp.Generations == nil {
		t.Errorf("empty listing = %+v, Generations must be [] not null", resp)
	}

	for i, ts := range []string{"20250101_120000", "20250102_090000"} {
		_, err := repo.SaveMetadata(context.Background(), filepath.Join(root, ts), &entity.GenerationMetadata{
			Timestamp:  ts,
			UserPrompt: fmt.Sprintf("prompt %d", i),
			Style:      entity.StyleRef{Id: "bold_marker", Name: "Bold Marker"},
			Images:     []string{"sketch_0.png"},
		})
		if err != nil {
			t.Fatalf("seed metadata %s: %v", ts, err)
		}
	}

	resp, err = svc.List(context.Background(), "bold_marker")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("Total = %d, want 2", resp.Total)
	}
	if resp.Generations[0].DirName != "20250102_090000" {
		t.Errorf("first record = %q, want newest first", resp.Generations[0].DirName)
	}

	resp, err = svc.List(context.Background(), "other_style")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if resp.Total != 0 {
		t.Errorf("Total = %d for a style with no history", resp.Total)
	}
}
