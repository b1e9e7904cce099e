package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/clairexuu/SWAG-Golf/internal/config"
	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/internal/repository/filestore"
	"github.com/clairexuu/SWAG-Golf/pkg/embedding"
	"github.com/clairexuu/SWAG-Golf/pkg/rag/index"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	styleCreateName        string
	styleCreateDescription string
	styleCreateLineWeight  string
	styleCreateLooseness   string
	styleCreateComplexity  string

	styleImportTarget string
	styleImportSkip   bool
)

// NewStyleCmd creates the style command group.
func NewStyleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "style",
		Short: "Manage the style library",
	}
	cmd.AddCommand(newStyleListCmd(), newStyleCreateCmd(), newStyleImportImagesCmd())
	return cmd
}

func newStyleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every style in the library",
		RunE:  runStyleList,
	}
}

func runStyleList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	styleRepo := filestore.NewStyleRepository(cfg.Paths.StyleLibraryDir, cfg.Paths.ReferenceImagesDir)

	styles, err := styleRepo.GetAll(cmd.Context())
	if err != nil {
		return err
	}

	if len(styles) == 0 {
		color.Yellow("No styles found under %s", cfg.Paths.StyleLibraryDir)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tREF IMAGES\tSUMMARY\tDESCRIPTION")
	for _, s := range styles {
		summarized := "-"
		if s.FeedbackSummary != "" {
			summarized = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", s.Id, s.Name, len(s.ReferenceImages), summarized, truncate(s.Description, 48))
	}
	return w.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func newStyleCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new style",
		Long: `Create a style directory with its style.json. Visual rule flags
left empty fall back to the library defaults (varied/medium/medium).

Examples:
  sketchctl style create --name "Bold Marker" --description "thick confident strokes"
  sketchctl style create --name "Fine Pencil" --line-weight fine --looseness tight`,
		RunE: runStyleCreate,
	}

	cmd.Flags().StringVar(&styleCreateName, "name", "", "display name (required)")
	cmd.Flags().StringVar(&styleCreateDescription, "description", "", "what the style looks like")
	cmd.Flags().StringVar(&styleCreateLineWeight, "line-weight", "", "line weight rule")
	cmd.Flags().StringVar(&styleCreateLooseness, "looseness", "", "looseness rule")
	cmd.Flags().StringVar(&styleCreateComplexity, "complexity", "", "complexity rule")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runStyleCreate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	styleRepo := filestore.NewStyleRepository(cfg.Paths.StyleLibraryDir, cfg.Paths.ReferenceImagesDir)

	var rules *entity.VisualRules
	if styleCreateLineWeight != "" || styleCreateLooseness != "" || styleCreateComplexity != "" {
		rules = &entity.VisualRules{
			LineWeight: styleCreateLineWeight,
			Looseness:  styleCreateLooseness,
			Complexity: styleCreateComplexity,
		}
	}

	style, err := styleRepo.Create(cmd.Context(), styleCreateName, styleCreateDescription, rules)
	if err != nil {
		return err
	}

	color.Green("✔ created style %s (%s)", style.Id, style.Name)
	return nil
}

func newStyleImportImagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-images <image>...",
		Short: "Copy reference images into a style and rebuild its index",
		Long: `Copy image files into the style's reference set. Duplicates are
detected by content hash and skipped. Unless --skip-rebuild is set, the
similarity index is rebuilt afterwards, which needs the CLIP service.

Examples:
  sketchctl style import-images --style bold_marker ./refs/*.png
  sketchctl style import-images --style bold_marker --skip-rebuild ref.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: runStyleImportImages,
	}

	cmd.Flags().StringVar(&styleImportTarget, "style", "", "style id to import into (required)")
	cmd.Flags().BoolVar(&styleImportSkip, "skip-rebuild", false, "leave the similarity index stale")
	_ = cmd.MarkFlagRequired("style")

	return cmd
}

func runStyleImportImages(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	styleRepo := filestore.NewStyleRepository(cfg.Paths.StyleLibraryDir, cfg.Paths.ReferenceImagesDir)

	ctx := cmd.Context()

	added, skipped, err := styleRepo.ImportReferenceImages(ctx, styleImportTarget, args)
	if err != nil {
		return err
	}
	color.Green("✔ imported %d images into %s (%d duplicates skipped)", added, styleImportTarget, skipped)

	if added == 0 || styleImportSkip {
		if added > 0 {
			color.Yellow("Index not rebuilt; run `sketchctl index build --style %s` before generating.", styleImportTarget)
		}
		return nil
	}

	style, err := styleRepo.GetStyle(ctx, styleImportTarget)
	if err != nil {
		return err
	}

	embedder := embedding.NewCLIPProvider(cfg.Embedding.BaseURL, cfg.Embedding.ModelID, cfg.Embedding.Dim)
	indexes := index.NewRegistry(embedder, cfg.Paths.RagCacheDir, nil)
	embeddings, err := indexes.Build(ctx, style)
	if err != nil {
		return fmt.Errorf("index rebuild failed (run `sketchctl index build --style %s` once the CLIP service is up): %w", styleImportTarget, err)
	}

	color.Green("✔ rebuilt index for %s (%d embeddings)", styleImportTarget, len(embeddings))
	return nil
}
