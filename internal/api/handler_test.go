package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querywatch/internal/domain"
	"querywatch/internal/testutil"
)

// === Mocks ===

type mockRunner struct {
	runFn func(ctx context.Context, trigger string) (*domain.DetectionRun, []domain.AnomalyFinding, error)
}

func (m *mockRunner) Run(ctx context.Context, trigger string) (*domain.DetectionRun, []domain.AnomalyFinding, error) {
	if m.runFn == nil {
		panic("mockRunner.Run called but not configured")
	}
	return m.runFn(ctx, trigger)
}

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(context.Context) error { return m.err }

// === Harness ===

type apiHarness struct {
	runner   *mockRunner
	queries  *testutil.MockQueryLogRepo
	runs     *testutil.MockRunRepo
	findings *testutil.MockFindingRepo
	pinger   *mockPinger
	router   chi.Router
}

func newAPIHarness() *apiHarness {
	h := &apiHarness{
		runner:   &mockRunner{},
		queries:  &testutil.MockQueryLogRepo{},
		runs:     &testutil.MockRunRepo{},
		findings: &testutil.MockFindingRepo{},
		pinger:   &mockPinger{},
	}
	handler := NewHandler(Deps{
		Runner:   h.runner,
		Queries:  h.queries,
		Runs:     h.runs,
		Findings: h.findings,
		Pinger:   h.pinger,
	})
	h.router = handler.Routes()
	return h
}

func (h *apiHarness) do(t *testing.T, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

// testRun is the shared run fixture.
func testRun() *domain.DetectionRun {
	started := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	finished := started.Add(2 * time.Second)
	return &domain.DetectionRun{
		ID:              "run-123",
		Trigger:         domain.TriggerManual,
		Status:          domain.RunStatusSucceeded,
		HistoricalFrom:  started.Add(-720 * time.Hour),
		HistoricalTo:    started,
		RecentFrom:      started.Add(-24 * time.Hour),
		RecentTo:        started,
		HistoricalCount: 1200,
		RecentCount:     48,
		BaselineUsers:   7,
		FindingCount:    2,
		StartedAt:       started,
		FinishedAt:      &finished,
	}
}

// === Health ===

func TestHealth_OK(t *testing.T) {
	t.Parallel()

	h := newAPIHarness()
	rec := h.do(t, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "uptime_seconds")
}

func TestHealth_DegradedWhenStoreUnreachable(t *testing.T) {
	t.Parallel()

	h := newAPIHarness()
	h.pinger.err = errors.New("database is locked")
	rec := h.do(t, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "database is locked", body["store_error"])
}

// === Error mapping ===

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", domain.ErrNotFound("gone"), http.StatusNotFound},
		{"validation", domain.ErrValidation("bad"), http.StatusBadRequest},
		{"conflict", domain.ErrConflict("dup"), http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, httpStatusFromDomainError(tt.err))
		})
	}
}

func TestMetricsEndpointMounted(t *testing.T) {
	t.Parallel()

	h := newAPIHarness()
	rec := h.do(t, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}
