package domain

import (
	"context"
	"time"
)

// LogSource supplies query-log records for an arbitrary half-open
// window [start, end), pre-filtered by the given criteria. Source
// errors are returned to the caller as-is; the detection pipeline
// performs no retry or recovery on ingestion failure.
type LogSource interface {
	Fetch(ctx context.Context, start, end time.Time, filters QueryFilters) ([]QueryRecord, error)
}

// QueryLogRepository is the persisted query log: a LogSource that can
// also be bulk-loaded and listed.
type QueryLogRepository interface {
	LogSource
	Insert(ctx context.Context, records []QueryRecord) error
	List(ctx context.Context, filter QueryLogFilter) ([]QueryRecord, int64, error)
}

// RunRepository stores detection-run history.
type RunRepository interface {
	Insert(ctx context.Context, run *DetectionRun) error
	Update(ctx context.Context, run *DetectionRun) error
	Get(ctx context.Context, id string) (*DetectionRun, error)
	List(ctx context.Context, page PageRequest) ([]DetectionRun, int64, error)
}

// FindingRepository stores the findings each run produced.
type FindingRepository interface {
	InsertBatch(ctx context.Context, runID string, findings []AnomalyFinding) error
	List(ctx context.Context, filter FindingFilter) ([]StoredFinding, int64, error)
}

// FindingSink delivers an ordered findings report somewhere outside the
// pipeline: a terminal, a file, an alert webhook, object storage. The
// pipeline's responsibility ends at producing the ordered sequence;
// encoding and delivery belong to the sink.
type FindingSink interface {
	Name() string
	Deliver(ctx context.Context, run *DetectionRun, findings []AnomalyFinding) error
}
