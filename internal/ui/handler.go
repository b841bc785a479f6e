package ui

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"querywatch/internal/domain"

	gomponents "maragu.dev/gomponents"
)

// Deps carries the dashboard's read-side collaborators.
type Deps struct {
	Runs     domain.RunRepository
	Findings domain.FindingRepository
	Queries  domain.QueryLogRepository
	Logger   *slog.Logger
}

// Handler renders the dashboard pages.
type Handler struct {
	runs     domain.RunRepository
	findings domain.FindingRepository
	queries  domain.QueryLogRepository
	logger   *slog.Logger
}

// NewHandler creates a dashboard handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		runs:     d.Runs,
		findings: d.Findings,
		queries:  d.Queries,
		logger:   logger.With("component", "ui"),
	}
}

// Overview shows the most recent run and store totals.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	one := domain.PageRequest{MaxResults: 1}

	runs, totalRuns, err := h.runs.List(ctx, one)
	if err != nil {
		h.renderError(w, err)
		return
	}
	_, totalFindings, err := h.findings.List(ctx, domain.FindingFilter{Page: one})
	if err != nil {
		h.renderError(w, err)
		return
	}
	_, totalQueries, err := h.queries.List(ctx, domain.QueryLogFilter{Page: one})
	if err != nil {
		h.renderError(w, err)
		return
	}

	d := overviewData{
		TotalRuns:     totalRuns,
		TotalFindings: totalFindings,
		TotalQueries:  totalQueries,
	}
	if len(runs) > 0 {
		d.LastRun = &runs[0]
	}
	renderHTML(w, http.StatusOK, overviewPage(d))
}

// Findings lists stored findings, optionally scoped to one run via the
// run_id query parameter.
func (h *Handler) Findings(w http.ResponseWriter, r *http.Request) {
	page := pageFromRequest(r, 50)
	filter := domain.FindingFilter{Page: page}
	if runID := r.URL.Query().Get("run_id"); runID != "" {
		filter.RunID = &runID
	}

	findings, total, err := h.findings.List(r.Context(), filter)
	if err != nil {
		h.renderError(w, err)
		return
	}

	rows := make([]findingRowData, len(findings))
	for i, f := range findings {
		rows[i] = findingRowData{
			Filter:      f.UserName + " " + string(f.AnomalyType) + " " + f.QueryText,
			UserName:    f.UserName,
			Time:        formatTime(f.StartTime),
			AnomalyType: f.AnomalyType,
			QueryText:   truncateQuery(f.QueryText, 80),
			Details:     f.Details,
			RunID:       f.RunID,
		}
	}
	renderHTML(w, http.StatusOK, findingsPage(rows, page, total))
}

// Runs lists run history, newest first.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	page := pageFromRequest(r, 30)
	runs, total, err := h.runs.List(r.Context(), page)
	if err != nil {
		h.renderError(w, err)
		return
	}

	rows := make([]runRowData, len(runs))
	for i, run := range runs {
		rows[i] = runRowData{
			ID:       run.ID,
			Status:   run.Status,
			Trigger:  run.Trigger,
			Started:  formatTime(run.StartedAt),
			Duration: formatDuration(run),
			Records:  strconv.FormatInt(run.HistoricalCount, 10) + " / " + strconv.FormatInt(run.RecentCount, 10),
			Users:    strconv.FormatInt(run.BaselineUsers, 10),
			Findings: run.FindingCount,
		}
	}
	renderHTML(w, http.StatusOK, runsPage(rows, page, total))
}

func (h *Handler) renderError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	title := "Unexpected Error"
	message := "An unexpected error occurred while loading this page."

	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	if errors.As(err, &notFound) {
		status = http.StatusNotFound
		title = "Not Found"
		message = notFound.Error()
	} else if errors.As(err, &validation) {
		status = http.StatusBadRequest
		title = "Invalid Request"
		message = validation.Error()
	} else {
		h.logger.Error("page render failed", "error", err)
	}

	renderHTML(w, status, errorPage(title, message))
}

func pageFromRequest(r *http.Request, defaultPageSize int) domain.PageRequest {
	maxResults := defaultPageSize
	if maxResults <= 0 {
		maxResults = 25
	}
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			maxResults = parsed
		}
	}
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > 200 {
		maxResults = 200
	}
	return domain.PageRequest{
		MaxResults: maxResults,
		PageToken:  r.URL.Query().Get("page_token"),
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}
