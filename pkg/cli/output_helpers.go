package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"querywatch/internal/domain"
)

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

// isQuiet reports whether --quiet was set on the root command.
func isQuiet(cmd *cobra.Command) bool {
	v, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable renders rows as tab-aligned columns under an uppercase header.
func printTable(w io.Writer, columns []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = strings.ToUpper(c)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// truncate shortens s to at most max runes for table cells.
func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// runPayload mirrors the API's run representation so JSON output is the
// same shape on every surface.
type runPayload struct {
	ID              string     `json:"id"`
	Trigger         string     `json:"trigger"`
	Status          string     `json:"status"`
	HistoricalFrom  time.Time  `json:"historical_from"`
	HistoricalTo    time.Time  `json:"historical_to"`
	RecentFrom      time.Time  `json:"recent_from"`
	RecentTo        time.Time  `json:"recent_to"`
	HistoricalCount int64      `json:"historical_count"`
	RecentCount     int64      `json:"recent_count"`
	BaselineUsers   int64      `json:"baseline_users"`
	FindingCount    int64      `json:"finding_count"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	DurationMS      int64      `json:"duration_ms"`
	Error           *string    `json:"error,omitempty"`
}

func runToPayload(r *domain.DetectionRun) runPayload {
	return runPayload{
		ID:              r.ID,
		Trigger:         r.Trigger,
		Status:          r.Status,
		HistoricalFrom:  r.HistoricalFrom,
		HistoricalTo:    r.HistoricalTo,
		RecentFrom:      r.RecentFrom,
		RecentTo:        r.RecentTo,
		HistoricalCount: r.HistoricalCount,
		RecentCount:     r.RecentCount,
		BaselineUsers:   r.BaselineUsers,
		FindingCount:    r.FindingCount,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		DurationMS:      r.Duration().Milliseconds(),
		Error:           r.Error,
	}
}

// findingPayload covers both fresh findings (no identity) and stored
// ones; id, run_id, and created_at are empty for fresh findings.
type findingPayload struct {
	ID          string     `json:"id,omitempty"`
	RunID       string     `json:"run_id,omitempty"`
	UserName    string     `json:"user_name"`
	QueryID     string     `json:"query_id"`
	StartTime   time.Time  `json:"start_time"`
	QueryText   string     `json:"query_text"`
	AnomalyType string     `json:"anomaly_type"`
	Details     string     `json:"details"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

func findingToPayload(f domain.AnomalyFinding) findingPayload {
	return findingPayload{
		UserName:    f.UserName,
		QueryID:     f.QueryID,
		StartTime:   f.StartTime,
		QueryText:   f.QueryText,
		AnomalyType: string(f.AnomalyType),
		Details:     f.Details,
	}
}

func storedFindingToPayload(f domain.StoredFinding) findingPayload {
	p := findingToPayload(f.AnomalyFinding)
	p.ID = f.ID
	p.RunID = f.RunID
	created := f.CreatedAt
	p.CreatedAt = &created
	return p
}
