// Package sink delivers findings reports produced by detection runs.
// Each sink owns its encoding and transport: aligned text for
// terminals, JSON lines for files and archives, JSON payloads for
// webhooks. Sinks never fail a run; delivery errors surface to the
// pipeline for logging and counting only.
package sink

import (
	"time"

	"querywatch/internal/domain"
)

// findingRecord is the JSON shape shared by the JSONL and archive
// sinks: one object per finding, annotated with the run that produced
// it.
type findingRecord struct {
	RunID       string             `json:"run_id"`
	UserName    string             `json:"user_name"`
	QueryID     string             `json:"query_id"`
	StartTime   time.Time          `json:"start_time"`
	QueryText   string             `json:"query_text"`
	AnomalyType domain.AnomalyType `json:"anomaly_type"`
	Details     string             `json:"details"`
}

func newFindingRecord(runID string, f domain.AnomalyFinding) findingRecord {
	return findingRecord{
		RunID:       runID,
		UserName:    f.UserName,
		QueryID:     f.QueryID,
		StartTime:   f.StartTime,
		QueryText:   f.QueryText,
		AnomalyType: f.AnomalyType,
		Details:     f.Details,
	}
}
