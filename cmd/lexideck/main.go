// Command lexideck is a spaced-repetition vocabulary deck on the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conorfennell/lexideck/internal/config"
)

func main() {
	if err := newRootCommand(newApp()).Execute(); err != nil {
		if _, fprintfErr := fmt.Fprintf(os.Stderr, "failed to execute a command: %v\n", err); fprintfErr != nil {
			panic(fmt.Errorf("failed to output an error: %w. Reason: %w", err, fprintfErr))
		}
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "lexideck",
		Short:         "Review vocabulary on a ten-stage spaced-repetition schedule",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newAddCommand(a),
		newImportCommand(a),
		newRemoveCommand(a),
		newResurrectCommand(a),
		newListCommand(a),
		newHistoryCommand(a),
		newReviewCommand(a),
		newStatsCommand(a),
		newHeatmapCommand(a),
		newForecastCommand(a),
		newRebuildStatsCommand(a),
		newResetCommand(a),
	)
	return root
}
