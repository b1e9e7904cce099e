package filestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/internal/mapper"
	"github.com/clairexuu/SWAG-Golf/internal/model"
	"github.com/clairexuu/SWAG-Golf/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// DefaultVisualRules is applied when a style is created without rules.
var DefaultVisualRules = entity.VisualRules{
	LineWeight:      "varied",
	Looseness:       "medium",
	Complexity:      "medium",
	AdditionalRules: []string{},
}

var supportedImageExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

type StyleRepositoryImpl struct {
	libraryRoot  string
	refImagesDir string
	mapper       *mapper.StyleMapper
	styles       *cache.Cache
}

// NewStyleRepository serves styles from libraryRoot/{styleId}/style.json,
// with reference images in the shared refImagesDir.
func NewStyleRepository(libraryRoot, refImagesDir string) contract.StyleRepository {
	return &StyleRepositoryImpl{
		libraryRoot:  libraryRoot,
		refImagesDir: refImagesDir,
		mapper:       mapper.NewStyleMapper(refImagesDir),
		styles:       cache.New(cache.NoExpiration, 0),
	}
}

func (r *StyleRepositoryImpl) GetStyle(ctx context.Context, styleId string) (*entity.Style, error) {
	if x, found := r.styles.Get(styleId); found {
		return x.(*entity.Style), nil
	}

	doc, err := r.readDocument(styleId)
	if err != nil {
		return nil, err
	}

	style := r.mapper.ToEntity(styleId, doc)

	// A style whose reference images are gone would silently degrade
	// retrieval, so it fails to load instead.
	var missing []string
	for _, p := range style.ReferenceImages {
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, filepath.Base(p))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("style %q references missing images: %s", styleId, strings.Join(missing, ", "))
	}

	r.styles.Set(styleId, style, cache.NoExpiration)
	return style, nil
}

func (r *StyleRepositoryImpl) GetAll(ctx context.Context) ([]*entity.Style, error) {
	ids, err := r.ListIds(ctx)
	if err != nil {
		return nil, err
	}

	styles := make([]*entity.Style, 0, len(ids))
	for _, id := range ids {
		style, err := r.GetStyle(ctx, id)
		if err != nil {
			return nil, err
		}
		styles = append(styles, style)
	}
	return styles, nil
}

// ListIds returns the ids of every directory holding a style.json, in
// lexical order. A missing library root lists as empty.
func (r *StyleRepositoryImpl) ListIds(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.libraryRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read style library: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(r.libraryRoot, e.Name(), model.StyleDocument{}.Filename())); err == nil {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

func (r *StyleRepositoryImpl) Create(ctx context.Context, name, description string, rules *entity.VisualRules) (*entity.Style, error) {
	styleId := Slugify(name)
	if styleId == "" {
		return nil, fmt.Errorf("style name %q produces an empty id", name)
	}

	styleDir := filepath.Join(r.libraryRoot, styleId)
	if _, err := os.Stat(styleDir); err == nil {
		return nil, fmt.Errorf("style %q already exists", styleId)
	}

	if rules == nil {
		defaults := DefaultVisualRules
		rules = &defaults
	}
	if rules.AdditionalRules == nil {
		rules.AdditionalRules = []string{}
	}

	if err := os.MkdirAll(styleDir, 0o755); err != nil {
		return nil, fmt.Errorf("create style directory: %w", err)
	}

	doc := &model.StyleDocument{
		Name:        name,
		Description: description,
		VisualRules: model.VisualRulesDocument{
			LineWeight:      rules.LineWeight,
			Looseness:       rules.Looseness,
			Complexity:      rules.Complexity,
			AdditionalRules: rules.AdditionalRules,
		},
		ReferenceImages: []string{},
		DoNotUse:        []string{},
	}
	if err := r.writeDocument(styleId, doc); err != nil {
		return nil, err
	}

	return r.mapper.ToEntity(styleId, doc), nil
}

// ImportReferenceImages copies sourcePaths into the shared reference images
// directory under fresh uuid filenames and registers them on the style.
// Files whose content hash already appears in the style are skipped.
func (r *StyleRepositoryImpl) ImportReferenceImages(ctx context.Context, styleId string, sourcePaths []string) (int, int, error) {
	doc, err := r.readDocument(styleId)
	if err != nil {
		return 0, 0, err
	}

	existing := make(map[string]struct{}, len(doc.ReferenceImages))
	for _, name := range doc.ReferenceImages {
		h, err := hashFile(filepath.Join(r.refImagesDir, name))
		if err != nil {
			continue
		}
		existing[h] = struct{}{}
	}

	var unique []string
	skipped := 0
	for _, src := range sourcePaths {
		ext := strings.ToLower(filepath.Ext(src))
		if _, ok := supportedImageExts[ext]; !ok {
			return 0, 0, fmt.Errorf("unsupported image format: %s", src)
		}
		h, err := hashFile(src)
		if err != nil {
			return 0, 0, fmt.Errorf("hash source image %s: %w", src, err)
		}
		if _, dup := existing[h]; dup {
			skipped++
			continue
		}
		existing[h] = struct{}{}
		unique = append(unique, src)
	}

	if len(unique) == 0 {
		return 0, skipped, nil
	}

	if err := os.MkdirAll(r.refImagesDir, 0o755); err != nil {
		return 0, 0, fmt.Errorf("create reference images directory: %w", err)
	}

	// Copy everything before touching style.json so a failed copy leaves
	// the style untouched.
	var copied []string
	for _, src := range unique {
		newName := uuid.NewString() + strings.ToLower(filepath.Ext(src))
		if err := copyFile(src, filepath.Join(r.refImagesDir, newName)); err != nil {
			for _, name := range copied {
				os.Remove(filepath.Join(r.refImagesDir, name))
			}
			return 0, 0, fmt.Errorf("copy image %s: %w", src, err)
		}
		copied = append(copied, newName)
	}

	doc.ReferenceImages = append(doc.ReferenceImages, copied...)
	if err := r.writeDocument(styleId, doc); err != nil {
		for _, name := range copied {
			os.Remove(filepath.Join(r.refImagesDir, name))
		}
		return 0, 0, err
	}

	r.Invalidate(styleId)
	return len(copied), skipped, nil
}

func (r *StyleRepositoryImpl) SetFeedbackSummary(ctx context.Context, styleId string, summary string) error {
	doc, err := r.readDocument(styleId)
	if err != nil {
		return err
	}

	doc.FeedbackSummary = summary
	if err := r.writeDocument(styleId, doc); err != nil {
		return err
	}

	r.Invalidate(styleId)
	return nil
}

func (r *StyleRepositoryImpl) Invalidate(styleId string) {
	r.styles.Delete(styleId)
}

func (r *StyleRepositoryImpl) documentPath(styleId string) string {
	return filepath.Join(r.libraryRoot, styleId, model.StyleDocument{}.Filename())
}

func (r *StyleRepositoryImpl) readDocument(styleId string) (*model.StyleDocument, error) {
	data, err := os.ReadFile(r.documentPath(styleId))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &contract.StyleNotFoundError{StyleId: styleId}
		}
		return nil, fmt.Errorf("read style %q: %w", styleId, err)
	}

	var doc model.StyleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("corrupted style document for %q: %w", styleId, err)
	}
	return &doc, nil
}

func (r *StyleRepositoryImpl) writeDocument(styleId string, doc *model.StyleDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal style %q: %w", styleId, err)
	}
	if err := os.WriteFile(r.documentPath(styleId), data, 0o644); err != nil {
		return fmt.Errorf("write style %q: %w", styleId, err)
	}
	return nil
}

// Slugify converts a display name into a style id: lowercased, spaces as
// underscores, everything but alphanumerics, underscores and hyphens dropped.
func Slugify(text string) string {
	slug := strings.ToLower(strings.TrimSpace(text))
	slug = strings.ReplaceAll(slug, " ", "_")

	var b strings.Builder
	for _, c := range slug {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '-' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
