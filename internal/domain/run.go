package domain

import "time"

// Detection run statuses.
const (
	RunStatusRunning   = "RUNNING"
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusFailed    = "FAILED"
)

// Detection run triggers.
const (
	TriggerManual    = "MANUAL"
	TriggerScheduled = "SCHEDULED"
	TriggerCLI       = "CLI"
)

// DetectionRun records one batch execution of the detection pipeline:
// the windows it read, how much it read, and what it found. The run row
// is the durable identity findings hang off; the baselines themselves
// are recomputed every run and never stored.
type DetectionRun struct {
	ID              string
	Trigger         string
	Status          string
	HistoricalFrom  time.Time
	HistoricalTo    time.Time
	RecentFrom      time.Time
	RecentTo        time.Time
	HistoricalCount int64
	RecentCount     int64
	BaselineUsers   int64
	FindingCount    int64
	StartedAt       time.Time
	FinishedAt      *time.Time
	Error           *string
}

// Duration returns the wall-clock duration of a finished run, or zero
// when the run is still in flight.
func (r *DetectionRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
