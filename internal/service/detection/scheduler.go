package detection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"querywatch/internal/domain"
)

// Scheduler triggers detection runs on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	svc    *Service
	spec   string
	logger *slog.Logger
}

// NewScheduler creates a scheduler that runs svc on the given cron spec.
func NewScheduler(svc *Service, spec string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		cron:   cron.New(),
		svc:    svc,
		spec:   spec,
		logger: logger.With("component", "scheduler"),
	}
}

// Start registers the detection job and starts the cron loop. The cron
// expression is static config, so an invalid one fails startup.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		_, _, runErr := s.svc.Run(context.Background(), domain.TriggerScheduled)
		if runErr != nil {
			s.logger.Warn("scheduled detection failed", "error", runErr)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid detect schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("detection scheduler started", "schedule", s.spec)
	return nil
}

// Stop stops the cron loop. A job already in flight runs to completion.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("detection scheduler stopped")
}
