package api

import (
	"net/http"

	"querywatch/internal/domain"
)

func (h *Handler) listFindings(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	filter := domain.FindingFilter{
		RunID:    optParam(r, "run_id"),
		UserName: optParam(r, "user_name"),
		Page:     page,
	}
	if raw := optParam(r, "anomaly_type"); raw != nil {
		at := domain.AnomalyType(*raw)
		if !at.Valid() {
			h.writeError(w, domain.ErrValidation("unknown anomaly_type %q", *raw))
			return
		}
		filter.AnomalyType = &at
	}

	findings, total, err := h.findings.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := listFindingsResponse{
		Findings:      make([]findingResponse, len(findings)),
		TotalCount:    total,
		NextPageToken: domain.NextPageToken(page.Offset(), page.Limit(), total),
	}
	for i, f := range findings {
		resp.Findings[i] = findingToAPI(f)
	}
	writeJSON(w, http.StatusOK, resp)
}
