package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/internal/mapper"
	"github.com/clairexuu/SWAG-Golf/internal/model"
	"github.com/clairexuu/SWAG-Golf/internal/repository/contract"
)

type HistoryRepositoryImpl struct {
	outputRoot string
	mapper     *mapper.GenerationMapper
}

// NewHistoryRepository serves generation history from the timestamped
// directories under outputRoot. Directory names sort chronologically, so
// lexical order is age order.
func NewHistoryRepository(outputRoot string) contract.HistoryRepository {
	return &HistoryRepositoryImpl{
		outputRoot: outputRoot,
		mapper:     mapper.NewGenerationMapper(),
	}
}

func (r *HistoryRepositoryImpl) SaveMetadata(ctx context.Context, outputDir string, meta *entity.GenerationMetadata) (string, error) {
	doc := r.mapper.ToDocument(meta)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal generation metadata: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(outputDir, doc.Filename())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write generation metadata: %w", err)
	}
	return path, nil
}

func (r *HistoryRepositoryImpl) List(ctx context.Context, styleId string, limit int) ([]*entity.GenerationRecord, error) {
	dirs, err := r.generationDirs()
	if err != nil {
		return nil, err
	}

	records := make([]*entity.GenerationRecord, 0, len(dirs))
	for _, dirName := range dirs {
		doc, err := r.readMetadata(dirName)
		if err != nil {
			continue
		}

		prompt := doc.UserPrompt
		if prompt == "" {
			prompt = doc.RefinePrompt
		}
		if prompt == "" {
			continue
		}

		if styleId != "" && doc.Style.Id != styleId {
			continue
		}

		timestamp := doc.Timestamp
		if timestamp == "" {
			timestamp = dirName
		}

		records = append(records, &entity.GenerationRecord{
			Timestamp:  timestamp,
			DirName:    dirName,
			UserPrompt: prompt,
			Style:      entity.StyleRef{Id: doc.Style.Id, Name: doc.Style.Name},
			ImageCount: len(doc.Images),
			Images:     doc.Images,
		})

		if limit > 0 && len(records) == limit {
			break
		}
	}
	return records, nil
}

func (r *HistoryRepositoryImpl) Prune(ctx context.Context, styleId string, keep int) (int, error) {
	dirs, err := r.generationDirs()
	if err != nil {
		return 0, err
	}

	var styleDirs []string
	for _, dirName := range dirs {
		doc, err := r.readMetadata(dirName)
		if err != nil {
			continue
		}
		if doc.Style.Id == styleId {
			styleDirs = append(styleDirs, dirName)
		}
	}

	if keep < 0 {
		keep = 0
	}
	if len(styleDirs) <= keep {
		return 0, nil
	}

	removed := 0
	for _, dirName := range styleDirs[keep:] {
		if err := os.RemoveAll(filepath.Join(r.outputRoot, dirName)); err == nil {
			removed++
		}
	}
	return removed, nil
}

// generationDirs lists output directory names newest-first. A missing
// output root lists as empty.
func (r *HistoryRepositoryImpl) generationDirs() ([]string, error) {
	entries, err := os.ReadDir(r.outputRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read output directory: %w", err)
	}

	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	return dirs, nil
}

func (r *HistoryRepositoryImpl) readMetadata(dirName string) (*model.GenerationMetadataDocument, error) {
	path := filepath.Join(r.outputRoot, dirName, model.GenerationMetadataDocument{}.Filename())
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc model.GenerationMetadataDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
