package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"querywatch/internal/domain"
)

// triggerRun executes a detection run synchronously and returns the
// finished run. Findings are retrieved separately via /v1/findings.
func (h *Handler) triggerRun(w http.ResponseWriter, r *http.Request) {
	run, _, err := h.runner.Run(r.Context(), domain.TriggerManual)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runToAPI(run))
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runToAPI(run))
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	runs, total, err := h.runs.List(r.Context(), page)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := listRunsResponse{
		Runs:          make([]runResponse, len(runs)),
		TotalCount:    total,
		NextPageToken: domain.NextPageToken(page.Offset(), page.Limit(), total),
	}
	for i := range runs {
		resp.Runs[i] = runToAPI(&runs[i])
	}
	writeJSON(w, http.StatusOK, resp)
}
