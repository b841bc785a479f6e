package api

import (
	"time"

	"querywatch/internal/domain"
)

// === Wire types ===

type runResponse struct {
	ID              string     `json:"id"`
	Trigger         string     `json:"trigger"`
	Status          string     `json:"status"`
	HistoricalFrom  time.Time  `json:"historical_from"`
	HistoricalTo    time.Time  `json:"historical_to"`
	RecentFrom      time.Time  `json:"recent_from"`
	RecentTo        time.Time  `json:"recent_to"`
	HistoricalCount int64      `json:"historical_count"`
	RecentCount     int64      `json:"recent_count"`
	BaselineUsers   int64      `json:"baseline_users"`
	FindingCount    int64      `json:"finding_count"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	DurationMs      int64      `json:"duration_ms"`
	Error           *string    `json:"error,omitempty"`
}

type listRunsResponse struct {
	Runs          []runResponse `json:"runs"`
	TotalCount    int64         `json:"total_count"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

type findingResponse struct {
	ID          string    `json:"id"`
	RunID       string    `json:"run_id"`
	UserName    string    `json:"user_name"`
	QueryID     string    `json:"query_id"`
	StartTime   time.Time `json:"start_time"`
	QueryText   string    `json:"query_text"`
	AnomalyType string    `json:"anomaly_type"`
	Details     string    `json:"details"`
	CreatedAt   time.Time `json:"created_at"`
}

type listFindingsResponse struct {
	Findings      []findingResponse `json:"findings"`
	TotalCount    int64             `json:"total_count"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

// queryRecordPayload is a query-log record on the wire, for both ingest
// requests and listing responses.
type queryRecordPayload struct {
	UserName        string    `json:"user_name"`
	QueryID         string    `json:"query_id"`
	StartTime       time.Time `json:"start_time"`
	QueryText       string    `json:"query_text"`
	ExecutionStatus string    `json:"execution_status"`
	QueryType       string    `json:"query_type"`
}

type listQueriesResponse struct {
	Queries       []queryRecordPayload `json:"queries"`
	TotalCount    int64                `json:"total_count"`
	NextPageToken string               `json:"next_page_token,omitempty"`
}

type ingestRequest struct {
	Queries []queryRecordPayload `json:"queries"`
}

type ingestResponse struct {
	Inserted int `json:"inserted"`
}

// === Mapping helpers ===

func runToAPI(r *domain.DetectionRun) runResponse {
	return runResponse{
		ID:              r.ID,
		Trigger:         r.Trigger,
		Status:          r.Status,
		HistoricalFrom:  r.HistoricalFrom,
		HistoricalTo:    r.HistoricalTo,
		RecentFrom:      r.RecentFrom,
		RecentTo:        r.RecentTo,
		HistoricalCount: r.HistoricalCount,
		RecentCount:     r.RecentCount,
		BaselineUsers:   r.BaselineUsers,
		FindingCount:    r.FindingCount,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		DurationMs:      r.Duration().Milliseconds(),
		Error:           r.Error,
	}
}

func findingToAPI(f domain.StoredFinding) findingResponse {
	return findingResponse{
		ID:          f.ID,
		RunID:       f.RunID,
		UserName:    f.UserName,
		QueryID:     f.QueryID,
		StartTime:   f.StartTime,
		QueryText:   f.QueryText,
		AnomalyType: string(f.AnomalyType),
		Details:     f.Details,
		CreatedAt:   f.CreatedAt,
	}
}

func queryRecordToAPI(r domain.QueryRecord) queryRecordPayload {
	return queryRecordPayload{
		UserName:        r.UserName,
		QueryID:         r.QueryID,
		StartTime:       r.StartTime,
		QueryText:       r.QueryText,
		ExecutionStatus: r.ExecutionStatus,
		QueryType:       r.QueryType,
	}
}

func (p queryRecordPayload) toDomain() domain.QueryRecord {
	return domain.QueryRecord{
		UserName:        p.UserName,
		QueryID:         p.QueryID,
		StartTime:       p.StartTime.UTC(),
		QueryText:       p.QueryText,
		ExecutionStatus: p.ExecutionStatus,
		QueryType:       p.QueryType,
	}
}
