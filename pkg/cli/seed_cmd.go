package cli

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"querywatch/internal/domain"
)

// seedTables is the pool of relations the synthetic analysts query.
// Each user is assigned three of them so per-user table sets differ.
var seedTables = []string{
	"sales.orders",
	"sales.customers",
	"sales.order_items",
	"marketing.campaigns",
	"marketing.leads",
	"warehouse.inventory",
	"warehouse.shipments",
}

func newSeedCmd(dbPath *string) *cobra.Command {
	var (
		days    int
		users   int
		seedVal uint64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a synthetic query-log workload for local testing",
		Long: `Seed fills the store with a deterministic synthetic workload: a group of
analysts issuing daytime SELECT queries over a fixed set of tables for the
configured number of days. The first user additionally gets an off-hours
query and an oversized query inside the last 24 hours, so a follow-up
"querywatch detect" has something to flag.

Query IDs embed the seed value and records are inserted with conflict
handling, so re-running with the same flags is idempotent.`,
		Example: `  # Default workload: 6 users, 31 days
  querywatch seed

  # Larger workload in a scratch store
  querywatch seed --db ./scratch.sqlite --users 12 --days 45

  # Then look for the injected anomalies
  querywatch detect --db ./scratch.sqlite`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, *dbPath, days, users, seedVal)
		},
	}

	cmd.Flags().IntVar(&days, "days", 31, "days of history to generate")
	cmd.Flags().IntVar(&users, "users", 6, "number of synthetic users")
	cmd.Flags().Uint64Var(&seedVal, "seed", 1, "random seed for the workload generator")

	return cmd
}

func runSeed(cmd *cobra.Command, dbPath string, days, users int, seedVal uint64) error {
	if days < 1 {
		return fmt.Errorf("--days must be at least 1, got %d", days)
	}
	if users < 1 {
		return fmt.Errorf("--users must be at least 1, got %d", users)
	}

	st, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer st.close()

	records := syntheticWorkload(time.Now().UTC(), days, users, seedVal)

	ctx := cmd.Context()
	for start := 0; start < len(records); start += ingestBatchSize {
		end := min(start+ingestBatchSize, len(records))
		if err := st.queryLog.Insert(ctx, records[start:end]); err != nil {
			return fmt.Errorf("insert seed batch: %w", err)
		}
	}

	if getOutputFormat(cmd) == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"seeded": len(records),
			"users":  users,
			"days":   days,
		})
	}
	if !isQuiet(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d query records (%d users, %d days) into %s\n",
			len(records), users, days, dbPath)
	}
	return nil
}

// syntheticWorkload builds the full record set: regular business-hours
// traffic for every user plus three injected anomalies for the first user,
// all timestamped inside the trailing 24 hours.
func syntheticWorkload(now time.Time, days, users int, seedVal uint64) []domain.QueryRecord {
	rng := rand.New(rand.NewPCG(seedVal, 0))

	var records []domain.QueryRecord
	n := 0
	add := func(user string, ts time.Time, text string) {
		n++
		records = append(records, domain.QueryRecord{
			UserName:        user,
			QueryID:         fmt.Sprintf("seed%d-%06d", seedVal, n),
			StartTime:       ts,
			QueryText:       text,
			ExecutionStatus: "SUCCESS",
			QueryType:       "SELECT",
		})
	}

	for u := 0; u < users; u++ {
		user := fmt.Sprintf("analyst_%02d", u+1)
		tables := []string{
			seedTables[u%len(seedTables)],
			seedTables[(u+1)%len(seedTables)],
			seedTables[(u+2)%len(seedTables)],
		}

		for d := days; d >= 1; d-- {
			day := now.AddDate(0, 0, -d)
			queries := 4 + rng.IntN(6)
			for q := 0; q < queries; q++ {
				ts := time.Date(day.Year(), day.Month(), day.Day(),
					8+rng.IntN(10), rng.IntN(60), rng.IntN(60), 0, time.UTC)
				add(user, ts, seedQuery(rng, tables[rng.IntN(len(tables))]))
			}
		}
	}

	// Injected anomalies for analyst_01, all within the recent window.
	first := "analyst_01"
	firstTables := []string{seedTables[0], seedTables[1], seedTables[2]}

	// Off-hours: a routine query at 03:11, far outside the 08-18 band.
	add(first, withinLastDay(now, 3, 11), seedQuery(rng, firstTables[0]))

	// Oversized: same shape as the routine queries but with a long tail of
	// predicates, pushing the length well past three standard deviations.
	long := seedQuery(rng, firstTables[1])
	for i := 0; i < 10; i++ {
		long += " AND customer_segment IN ('enterprise', 'smb', 'consumer')"
	}
	add(first, withinLastDay(now, 10, 24), long)

	// First touch of a table nobody queried before.
	add(first, withinLastDay(now, 11, 42),
		"SELECT employee_id, base_salary FROM finance.salaries WHERE fiscal_year = 2026")

	return records
}

// seedQuery renders a routine SELECT with a small random number of extra
// predicates so lengths cluster tightly around the mean.
func seedQuery(rng *rand.Rand, table string) string {
	q := fmt.Sprintf("SELECT order_date, region, amount FROM %s WHERE order_date >= DATE '2026-01-01'", table)
	for i := 0; i < rng.IntN(4); i++ {
		q += " AND region_id = 7"
	}
	return q
}

// withinLastDay returns a timestamp at hour:minute guaranteed to land in
// [now-24h, now): today's occurrence if that has already passed, otherwise
// yesterday's.
func withinLastDay(now time.Time, hour, minute int) time.Time {
	ts := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if ts.After(now) {
		ts = ts.AddDate(0, 0, -1)
	}
	return ts
}
