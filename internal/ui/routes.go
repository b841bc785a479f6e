package ui

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the dashboard pages on r, which the server
// mounts under /ui.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/static/app.css", h.Stylesheet)
	r.Get("/", h.Overview)
	r.Get("/findings", h.Findings)
	r.Get("/runs", h.Runs)
}
