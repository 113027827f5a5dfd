package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// app is initialized before any subcommand runs and torn down after.
var app *AppContext

var rootCmd = &cobra.Command{
	Use:   "abkit",
	Short: "Experiment assignment and statistics engine",
	Long: `abkit deterministically buckets users into weighted experiment
variations, records per-variation metric observations, and estimates
whether one variation outperforms another.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		app, err = NewAppContext(cmd.Context())
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Close(cmd.Context())
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(experimentCmd)
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(metricCmd)
	rootCmd.AddCommand(winnerCmd)
	rootCmd.AddCommand(significanceCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
