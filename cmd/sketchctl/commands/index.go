package commands

import (
	"fmt"

	"github.com/clairexuu/SWAG-Golf/internal/config"
	"github.com/clairexuu/SWAG-Golf/internal/repository/filestore"
	"github.com/clairexuu/SWAG-Golf/pkg/embedding"
	"github.com/clairexuu/SWAG-Golf/pkg/rag/index"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	indexBuildStyle string
	indexBuildAll   bool
)

// NewIndexCmd creates the index command group.
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage per-style similarity indices",
	}
	cmd.AddCommand(newIndexBuildCmd())
	return cmd
}

func newIndexBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Embed a style's reference images and persist the index",
		Long: `Embed reference images through the CLIP service and write the
per-style embedding snapshot the retrieval engine reads at query time.
Requires the CLIP service to be reachable.

Examples:
  sketchctl index build --style bold_marker
  sketchctl index build --all`,
		RunE: runIndexBuild,
	}

	cmd.Flags().StringVar(&indexBuildStyle, "style", "", "style id to build")
	cmd.Flags().BoolVar(&indexBuildAll, "all", false, "build every style in the library")

	return cmd
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	if indexBuildStyle == "" && !indexBuildAll {
		return fmt.Errorf("pass --style <id> or --all")
	}

	cfg := config.Load()
	styleRepo := filestore.NewStyleRepository(cfg.Paths.StyleLibraryDir, cfg.Paths.ReferenceImagesDir)
	embedder := embedding.NewCLIPProvider(cfg.Embedding.BaseURL, cfg.Embedding.ModelID, cfg.Embedding.Dim)
	indexes := index.NewRegistry(embedder, cfg.Paths.RagCacheDir, nil)

	ctx := cmd.Context()

	styleIds := []string{indexBuildStyle}
	if indexBuildAll {
		ids, err := styleRepo.ListIds(ctx)
		if err != nil {
			return err
		}
		styleIds = ids
	}

	for _, id := range styleIds {
		style, err := styleRepo.GetStyle(ctx, id)
		if err != nil {
			return err
		}
		embeddings, err := indexes.Build(ctx, style)
		if err != nil {
			return fmt.Errorf("build %s: %w", id, err)
		}
		color.Green("✔ %s: %d reference images embedded", id, len(embeddings))
	}

	return nil
}
