// Package cli implements the querywatch command-line interface.
// Commands operate directly on the local SQLite store; serve starts
// the full HTTP server and dashboard.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(os.Stdout, map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		dbPath string
		output string
		quiet  bool
	)

	rootCmd := &cobra.Command{
		Use:           "querywatch",
		Short:         "Query-log anomaly detection",
		Long:          "Batch anomaly detection over warehouse query logs: per-user baselines from a month of history, findings from the most recent day.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Apply precedence: flag > env > default
			if !cmd.Flags().Changed("db") {
				if v := os.Getenv("DB_PATH"); v != "" {
					dbPath = v
				}
			}
			return validateOutputFormat(output)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "querywatch.sqlite", "Path to the SQLite store")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only output resource identifiers")

	rootCmd.AddCommand(newDetectCmd(&dbPath))
	rootCmd.AddCommand(newIngestCmd(&dbPath))
	rootCmd.AddCommand(newSeedCmd(&dbPath))
	rootCmd.AddCommand(newRunsCmd(&dbPath))
	rootCmd.AddCommand(newFindingsCmd(&dbPath))
	rootCmd.AddCommand(newServeCmd(&dbPath))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
