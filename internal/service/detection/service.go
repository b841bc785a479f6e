// Package detection orchestrates batch anomaly-detection runs: window
// computation, concurrent log fetches, the pure detection core, run and
// finding persistence, and sink delivery.
package detection

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"querywatch/internal/anomaly"
	"querywatch/internal/domain"
)

// Window defaults, applied when Deps leaves them zero.
const (
	DefaultHistoricalWindow = 720 * time.Hour
	DefaultRecentWindow     = 24 * time.Hour
)

// Deps holds dependencies and tunables for the detection Service.
type Deps struct {
	Source   domain.LogSource
	Runs     domain.RunRepository
	Findings domain.FindingRepository
	Sinks    []domain.FindingSink

	Params           anomaly.Params
	HistoricalWindow time.Duration // baseline lookback (default 720h)
	RecentWindow     time.Duration // evaluation window (default 24h)
	Filters          domain.QueryFilters

	Logger *slog.Logger
}

// Service runs the detection pipeline. Baselines are recomputed from
// the historical window on every run and never cached, so each run
// reflects the current log contents.
type Service struct {
	source   domain.LogSource
	runs     domain.RunRepository
	findings domain.FindingRepository
	sinks    []domain.FindingSink

	params           anomaly.Params
	historicalWindow time.Duration
	recentWindow     time.Duration
	filters          domain.QueryFilters

	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a detection Service from its dependencies.
func NewService(d Deps) *Service {
	if d.HistoricalWindow <= 0 {
		d.HistoricalWindow = DefaultHistoricalWindow
	}
	if d.RecentWindow <= 0 {
		d.RecentWindow = DefaultRecentWindow
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		source:           d.Source,
		runs:             d.Runs,
		findings:         d.Findings,
		sinks:            d.Sinks,
		params:           d.Params,
		historicalWindow: d.HistoricalWindow,
		recentWindow:     d.RecentWindow,
		filters:          d.Filters,
		now:              time.Now,
		logger:           d.Logger.With("component", "detection"),
	}
}

// Run executes one batch detection pass and returns the finished run
// row together with the ordered findings. The run row is inserted in
// RUNNING state before any fetch so failed attempts stay visible; on a
// fetch or persistence error the run is marked FAILED and the error is
// returned without retry.
func (s *Service) Run(ctx context.Context, trigger string) (*domain.DetectionRun, []domain.AnomalyFinding, error) {
	now := s.now().UTC()

	run := &domain.DetectionRun{
		ID:             domain.NewID(),
		Trigger:        trigger,
		Status:         domain.RunStatusRunning,
		HistoricalFrom: now.Add(-s.historicalWindow),
		HistoricalTo:   now,
		RecentFrom:     now.Add(-s.recentWindow),
		RecentTo:       now,
		StartedAt:      now,
	}
	if err := s.runs.Insert(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("insert detection run: %w", err)
	}

	s.logger.Info("detection run started",
		"run_id", run.ID,
		"trigger", trigger,
		"historical_from", run.HistoricalFrom,
		"recent_from", run.RecentFrom,
	)

	// Both windows come from the same source with the same filters; only
	// the bounds differ. Fetch them concurrently.
	var historical, recent []domain.QueryRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		historical, err = s.source.Fetch(gctx, run.HistoricalFrom, run.HistoricalTo, s.filters)
		if err != nil {
			return fmt.Errorf("fetch historical window: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		recent, err = s.source.Fetch(gctx, run.RecentFrom, run.RecentTo, s.filters)
		if err != nil {
			return fmt.Errorf("fetch recent window: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.failRun(ctx, run, err)
		return nil, nil, err
	}

	recordsFetched.WithLabelValues("historical").Add(float64(len(historical)))
	recordsFetched.WithLabelValues("recent").Add(float64(len(recent)))

	baselines := anomaly.BuildBaselines(historical, s.params)
	activity := anomaly.ExtractActivity(recent, s.params.Location)
	findings := anomaly.Detect(activity, baselines, s.params)

	if err := s.findings.InsertBatch(ctx, run.ID, findings); err != nil {
		err = fmt.Errorf("persist findings: %w", err)
		s.failRun(ctx, run, err)
		return nil, nil, err
	}

	finished := s.now().UTC()
	run.Status = domain.RunStatusSucceeded
	run.HistoricalCount = int64(len(historical))
	run.RecentCount = int64(len(recent))
	run.BaselineUsers = int64(len(baselines))
	run.FindingCount = int64(len(findings))
	run.FinishedAt = &finished
	if err := s.runs.Update(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("update detection run: %w", err)
	}

	runsTotal.WithLabelValues(trigger, run.Status).Inc()
	runDuration.Observe(run.Duration().Seconds())
	for _, f := range findings {
		findingsTotal.WithLabelValues(string(f.AnomalyType)).Inc()
	}

	s.logger.Info("detection run finished",
		"run_id", run.ID,
		"historical_records", run.HistoricalCount,
		"recent_records", run.RecentCount,
		"baseline_users", run.BaselineUsers,
		"findings", run.FindingCount,
		"duration", run.Duration(),
	)

	s.deliver(ctx, run, findings)

	return run, findings, nil
}

// deliver pushes the findings report to every sink. A sink failure is
// logged and counted but never fails the run or blocks other sinks.
func (s *Service) deliver(ctx context.Context, run *domain.DetectionRun, findings []domain.AnomalyFinding) {
	for _, sink := range s.sinks {
		if err := sink.Deliver(ctx, run, findings); err != nil {
			sinkFailures.WithLabelValues(sink.Name()).Inc()
			s.logger.Warn("sink delivery failed",
				"sink", sink.Name(),
				"run_id", run.ID,
				"error", err,
			)
		}
	}
}

// failRun marks the run FAILED with the error message. The update is
// best-effort: the original error is what callers see.
func (s *Service) failRun(ctx context.Context, run *domain.DetectionRun, cause error) {
	finished := s.now().UTC()
	msg := cause.Error()
	run.Status = domain.RunStatusFailed
	run.FinishedAt = &finished
	run.Error = &msg

	if err := s.runs.Update(ctx, run); err != nil {
		s.logger.Error("mark run failed", "run_id", run.ID, "error", err)
	}
	runsTotal.WithLabelValues(run.Trigger, domain.RunStatusFailed).Inc()
	s.logger.Error("detection run failed", "run_id", run.ID, "error", cause)
}
