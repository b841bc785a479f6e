package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"querywatch/internal/domain"
)

// Compile-time check that WebhookSink implements domain.FindingSink.
var _ domain.FindingSink = (*WebhookSink)(nil)

// WebhookSink POSTs the findings report as JSON to an HTTP endpoint.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink creates a sink that posts to url. A nil client gets a
// default with a 10s timeout.
func NewWebhookSink(url string, client *http.Client) *WebhookSink {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookSink{url: url, client: client}
}

// Name implements domain.FindingSink.
func (s *WebhookSink) Name() string { return "webhook" }

// webhookPayload is the report body: run summary plus the ordered
// findings.
type webhookPayload struct {
	RunID         string          `json:"run_id"`
	Trigger       string          `json:"trigger"`
	Status        string          `json:"status"`
	RecentFrom    time.Time       `json:"recent_from"`
	RecentTo      time.Time       `json:"recent_to"`
	RecentCount   int64           `json:"recent_count"`
	BaselineUsers int64           `json:"baseline_users"`
	FindingCount  int64           `json:"finding_count"`
	Findings      []findingRecord `json:"findings"`
}

// Deliver implements domain.FindingSink.
func (s *WebhookSink) Deliver(ctx context.Context, run *domain.DetectionRun, findings []domain.AnomalyFinding) error {
	payload := webhookPayload{
		RunID:         run.ID,
		Trigger:       run.Trigger,
		Status:        run.Status,
		RecentFrom:    run.RecentFrom,
		RecentTo:      run.RecentTo,
		RecentCount:   run.RecentCount,
		BaselineUsers: run.BaselineUsers,
		FindingCount:  run.FindingCount,
		Findings:      make([]findingRecord, 0, len(findings)),
	}
	for _, f := range findings {
		payload.Findings = append(payload.Findings, newFindingRecord(run.ID, f))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
