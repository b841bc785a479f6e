// Package api exposes the detection pipeline and its stores over HTTP.
// Handlers are hand-written chi routes over consumer-defined interfaces;
// every error body is the same {"code", "message"} envelope.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"querywatch/internal/domain"
)

// DetectionRunner triggers one synchronous detection run.
// Implemented by detection.Service.
type DetectionRunner interface {
	Run(ctx context.Context, trigger string) (*domain.DetectionRun, []domain.AnomalyFinding, error)
}

// Pinger reports whether the backing store is reachable.
// Implemented by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps carries the handler's collaborators.
type Deps struct {
	Runner   DetectionRunner
	Queries  domain.QueryLogRepository
	Runs     domain.RunRepository
	Findings domain.FindingRepository
	Pinger   Pinger
	Logger   *slog.Logger
}

// Handler serves the querywatch HTTP API.
type Handler struct {
	runner   DetectionRunner
	queries  domain.QueryLogRepository
	runs     domain.RunRepository
	findings domain.FindingRepository
	pinger   Pinger
	logger   *slog.Logger
	started  time.Time
}

// NewHandler creates an API handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		runner:   d.Runner,
		queries:  d.Queries,
		runs:     d.Runs,
		findings: d.Findings,
		pinger:   d.Pinger,
		logger:   logger.With("component", "api"),
		started:  time.Now(),
	}
}

// health reports process liveness, uptime, and store reachability.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	}
	if h.pinger != nil {
		if err := h.pinger.PingContext(r.Context()); err != nil {
			resp["status"] = "degraded"
			resp["store_error"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
