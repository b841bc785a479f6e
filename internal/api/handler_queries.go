package api

import (
	"encoding/json"
	"net/http"

	"querywatch/internal/domain"
)

func (h *Handler) listQueries(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	filter := domain.QueryLogFilter{
		UserName:  optParam(r, "user_name"),
		Status:    optParam(r, "status"),
		QueryType: optParam(r, "query_type"),
		Page:      page,
	}
	if filter.From, err = timeParam(r, "from"); err != nil {
		h.writeError(w, err)
		return
	}
	if filter.To, err = timeParam(r, "to"); err != nil {
		h.writeError(w, err)
		return
	}

	records, total, err := h.queries.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := listQueriesResponse{
		Queries:       make([]queryRecordPayload, len(records)),
		TotalCount:    total,
		NextPageToken: domain.NextPageToken(page.Offset(), page.Limit(), total),
	}
	for i, rec := range records {
		resp.Queries[i] = queryRecordToAPI(rec)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ingestQueries bulk-loads query-log records. Every record needs a
// user, a query ID, and a start time; the store skips IDs it already
// holds, so re-posting an export is safe.
func (h *Handler) ingestQueries(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	if len(req.Queries) == 0 {
		h.writeError(w, domain.ErrValidation("queries must not be empty"))
		return
	}

	records := make([]domain.QueryRecord, len(req.Queries))
	for i, q := range req.Queries {
		if q.UserName == "" || q.QueryID == "" || q.StartTime.IsZero() {
			h.writeError(w, domain.ErrValidation(
				"queries[%d]: user_name, query_id, and start_time are required", i))
			return
		}
		records[i] = q.toDomain()
	}

	if err := h.queries.Insert(r.Context(), records); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("ingested query records", "count", len(records))
	writeJSON(w, http.StatusCreated, ingestResponse{Inserted: len(records)})
}
