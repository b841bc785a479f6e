package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"querywatch/internal/domain"
)

func newFindingsCmd(dbPath *string) *cobra.Command {
	var (
		runID      string
		userName   string
		anomaly    string
		maxResults int
	)

	cmd := &cobra.Command{
		Use:   "findings",
		Short: "List stored anomaly findings",
		Long: `Findings lists anomaly findings persisted by past detection runs,
optionally filtered by run, user, or anomaly type.`,
		Example: `  # Everything from the most recent runs
  querywatch findings

  # One user's off-hours activity
  querywatch findings --user analyst_01 --type TIME_OF_DAY

  # All findings of a specific run, as JSON
  querywatch findings --run <run-id> --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFindings(cmd, *dbPath, runID, userName, anomaly, maxResults)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "only findings from this run ID")
	cmd.Flags().StringVar(&userName, "user", "", "only findings for this user")
	cmd.Flags().StringVar(&anomaly, "type", "", "only findings of this anomaly type (TIME_OF_DAY, COMPLEXITY, TABLE_ACCESS)")
	cmd.Flags().IntVar(&maxResults, "max-results", 50, "maximum number of findings to list")

	return cmd
}

func runFindings(cmd *cobra.Command, dbPath, runID, userName, anomaly string, maxResults int) error {
	filter := domain.FindingFilter{Page: domain.PageRequest{MaxResults: maxResults}}
	if runID != "" {
		filter.RunID = &runID
	}
	if userName != "" {
		filter.UserName = &userName
	}
	if anomaly != "" {
		t := domain.AnomalyType(anomaly)
		if !t.Valid() {
			return fmt.Errorf("unknown anomaly type %q: use one of %v", anomaly, domain.AnomalyTypes)
		}
		filter.AnomalyType = &t
	}

	st, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer st.close()

	findings, total, err := st.findingsReader.List(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("list findings: %w", err)
	}

	if isQuiet(cmd) {
		for _, f := range findings {
			fmt.Fprintln(cmd.OutOrStdout(), f.ID)
		}
		return nil
	}

	if getOutputFormat(cmd) == "json" {
		payloads := make([]findingPayload, 0, len(findings))
		for _, f := range findings {
			payloads = append(payloads, storedFindingToPayload(f))
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"findings":    payloads,
			"total_count": total,
		})
	}

	if len(findings) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No findings match the filter.")
		return nil
	}

	headers := []string{"run", "user", "time", "type", "details", "query"}
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, []string{
			f.RunID,
			f.UserName,
			formatTime(f.StartTime),
			string(f.AnomalyType),
			f.Details,
			truncate(f.QueryText, 60),
		})
	}
	printTable(cmd.OutOrStdout(), headers, rows)
	if int64(len(findings)) < total {
		fmt.Fprintf(cmd.OutOrStdout(), "\nShowing %d of %d findings.\n", len(findings), total)
	}
	return nil
}
