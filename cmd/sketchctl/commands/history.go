package commands

import (
	"github.com/clairexuu/SWAG-Golf/internal/config"
	"github.com/clairexuu/SWAG-Golf/internal/repository/filestore"
	"github.com/clairexuu/SWAG-Golf/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	historyPruneStyle string
	historyPruneKeep  int
)

// NewHistoryCmd creates the history command group.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage stored generation batches",
	}
	cmd.AddCommand(newHistoryPruneCmd())
	return cmd
}

func newHistoryPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete a style's oldest generation batches beyond the retention limit",
		RunE:  runHistoryPrune,
	}

	cmd.Flags().StringVar(&historyPruneStyle, "style", "", "style id to prune (required)")
	cmd.Flags().IntVar(&historyPruneKeep, "keep", 100, "batches to keep")
	_ = cmd.MarkFlagRequired("style")

	return cmd
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	historyService := service.NewHistoryService(filestore.NewHistoryRepository(cfg.Paths.OutputDir))

	removed, err := historyService.Prune(cmd.Context(), historyPruneStyle, historyPruneKeep)
	if err != nil {
		return err
	}

	if removed == 0 {
		color.Yellow("Nothing to prune for %s (keep=%d)", historyPruneStyle, historyPruneKeep)
		return nil
	}

	color.Green("✔ pruned %d generation batches for %s", removed, historyPruneStyle)
	return nil
}
