package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"querywatch/internal/anomaly"
	"querywatch/internal/config"
	"querywatch/internal/domain"
	"querywatch/internal/service/detection"
	"querywatch/internal/sink"
	"querywatch/internal/source/ducklog"
)

func newDetectCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Run one detection pass and print the findings",
		Long: `Run one batch detection pass against the local store: build per-user
baselines from the historical window, evaluate the recent window, and
print the findings. Detection parameters come from the environment
(TIMEZONE, MIN_ACTIVITY, DEVIATION_MULTIPLIER, ...); findings are also
persisted so runs and findings can list them later.`,
		Example: `  querywatch detect
  querywatch detect --db ./ops.sqlite --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDetect(cmd, *dbPath)
		},
	}
}

func runDetect(cmd *cobra.Command, dbPath string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	loc, err := cfg.Detection.Location()
	if err != nil {
		return err
	}

	st, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer st.close()

	var source domain.LogSource = st.queryLogReader
	if cfg.SourceDriver == config.SourceDriverDuckDB {
		duckDB, err := sql.Open("duckdb", cfg.DuckDBPath)
		if err != nil {
			return fmt.Errorf("open duckdb: %w", err)
		}
		defer duckDB.Close()
		source, err = ducklog.New(duckDB, cfg.SourceRelation)
		if err != nil {
			return err
		}
	}

	// No sinks here: findings go to the terminal in the chosen format,
	// delivery is the server's concern.
	svc := detection.NewService(detection.Deps{
		Source:   source,
		Runs:     st.runs,
		Findings: st.findings,
		Params: anomaly.Params{
			Location:            loc,
			MinActivity:         cfg.Detection.MinActivity,
			DeviationMultiplier: cfg.Detection.DeviationMultiplier,
		},
		HistoricalWindow: cfg.Detection.HistoricalWindow,
		RecentWindow:     cfg.Detection.RecentWindow,
		Filters: domain.QueryFilters{
			QueryType:    cfg.Detection.QueryType,
			Status:       cfg.Detection.QueryStatus,
			ExcludeUsers: cfg.Detection.SystemAccounts,
		},
	})

	run, findings, err := svc.Run(cmd.Context(), domain.TriggerCLI)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isQuiet(cmd) {
		fmt.Fprintln(out, run.ID)
		return nil
	}
	if getOutputFormat(cmd) == "json" {
		payload := make([]findingPayload, 0, len(findings))
		for _, f := range findings {
			payload = append(payload, findingToPayload(f))
		}
		return printJSON(out, map[string]interface{}{
			"run":      runToPayload(run),
			"findings": payload,
		})
	}

	// Table output delegates to the console sink so terminal reports and
	// SINKS=console reports render the same.
	return sink.NewConsoleSink(out).Deliver(cmd.Context(), run, findings)
}
