package commands

import (
	"github.com/spf13/cobra"
)

// Execute runs the sketchctl command tree.
func Execute() error {
	rootCmd := &cobra.Command{
		Use:           "sketchctl",
		Short:         "Admin tool for the sketch generation engine",
		Long:          "sketchctl manages the style library, similarity indices, and generation history on disk, and can tail the lifecycle event bus.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		NewIndexCmd(),
		NewStyleCmd(),
		NewHistoryCmd(),
		NewEventsCmd(),
	)

	return rootCmd.Execute()
}
