package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes returns the API router. Cross-cutting middleware (request ID,
// rate limiting, CORS) is mounted by the server bootstrap, not here.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/runs", h.triggerRun)
		r.Get("/runs", h.listRuns)
		r.Get("/runs/{runID}", h.getRun)
		r.Get("/findings", h.listFindings)
		r.Get("/queries", h.listQueries)
		r.Post("/queries", h.ingestQueries)
	})

	return r
}
