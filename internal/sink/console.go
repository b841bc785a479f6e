package sink

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"querywatch/internal/domain"
)

// Compile-time check that ConsoleSink implements domain.FindingSink.
var _ domain.FindingSink = (*ConsoleSink)(nil)

// ConsoleSink writes the findings report as an aligned text table. It
// is the default output of the CLI detect command.
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink creates a sink that writes to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

// Name implements domain.FindingSink.
func (s *ConsoleSink) Name() string { return "console" }

// Deliver implements domain.FindingSink.
func (s *ConsoleSink) Deliver(_ context.Context, run *domain.DetectionRun, findings []domain.AnomalyFinding) error {
	window := fmt.Sprintf("%s to %s",
		run.RecentFrom.Format("2006-01-02 15:04 MST"),
		run.RecentTo.Format("2006-01-02 15:04 MST"))

	if len(findings) == 0 {
		_, err := fmt.Fprintf(s.w, "run %s: no anomalies in %s (%d baseline users)\n",
			run.ID, window, run.BaselineUsers)
		return err
	}

	if _, err := fmt.Fprintf(s.w, "run %s: %d findings in %s\n\n", run.ID, len(findings), window); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(s.w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tTIME\tTYPE\tQUERY\tDETAILS")
	for _, f := range findings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			f.UserName,
			f.StartTime.Format(time.RFC3339),
			f.AnomalyType,
			truncate(f.QueryText, 48),
			f.Details,
		)
	}
	return tw.Flush()
}

// truncate collapses whitespace runs to single spaces, so query text
// stays on one table row, and shortens the result to at most max
// runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
