package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"querywatch/internal/domain"
)

func newRunsCmd(dbPath *string) *cobra.Command {
	var maxResults int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List detection runs",
		Long: `Runs lists recorded detection runs, most recent first, with the record
counts and finding totals of each.`,
		Example: `  # Most recent runs
  querywatch runs

  # Full run records as JSON
  querywatch runs --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, *dbPath, maxResults)
		},
	}

	cmd.Flags().IntVar(&maxResults, "max-results", 20, "maximum number of runs to list")

	return cmd
}

func runRuns(cmd *cobra.Command, dbPath string, maxResults int) error {
	st, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer st.close()

	runs, total, err := st.runsReader.List(cmd.Context(), domain.PageRequest{MaxResults: maxResults})
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if isQuiet(cmd) {
		for _, r := range runs {
			fmt.Fprintln(cmd.OutOrStdout(), r.ID)
		}
		return nil
	}

	if getOutputFormat(cmd) == "json" {
		payloads := make([]runPayload, 0, len(runs))
		for i := range runs {
			payloads = append(payloads, runToPayload(&runs[i]))
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"runs":        payloads,
			"total_count": total,
		})
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No detection runs recorded.")
		return nil
	}

	headers := []string{"id", "status", "trigger", "started", "duration", "records", "users", "findings"}
	rows := make([][]string, 0, len(runs))
	for i := range runs {
		r := &runs[i]
		rows = append(rows, []string{
			r.ID,
			r.Status,
			r.Trigger,
			formatTime(r.StartedAt),
			r.Duration().Round(time.Millisecond).String(),
			fmt.Sprintf("%d/%d", r.HistoricalCount, r.RecentCount),
			fmt.Sprintf("%d", r.BaselineUsers),
			fmt.Sprintf("%d", r.FindingCount),
		})
	}
	printTable(cmd.OutOrStdout(), headers, rows)
	if int64(len(runs)) < total {
		fmt.Fprintf(cmd.OutOrStdout(), "\nShowing %d of %d runs.\n", len(runs), total)
	}
	return nil
}
