// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"
	"time"

	"querywatch/internal/domain"
)

// === Log Source Mock ===

// FetchCall records one window a mock source was asked for.
type FetchCall struct {
	Start   time.Time
	End     time.Time
	Filters domain.QueryFilters
}

// MockLogSource implements domain.LogSource for testing. The detection
// pipeline fetches its two windows concurrently, so call recording is
// guarded by a mutex.
type MockLogSource struct {
	FetchFn func(ctx context.Context, start, end time.Time, filters domain.QueryFilters) ([]domain.QueryRecord, error)

	mu      sync.Mutex
	Fetches []FetchCall // collected calls for assertions
}

// Fetch implements the interface method for testing.
func (m *MockLogSource) Fetch(ctx context.Context, start, end time.Time, filters domain.QueryFilters) ([]domain.QueryRecord, error) {
	m.mu.Lock()
	m.Fetches = append(m.Fetches, FetchCall{Start: start, End: end, Filters: filters})
	m.mu.Unlock()
	if m.FetchFn != nil {
		return m.FetchFn(ctx, start, end, filters)
	}
	panic("unexpected call to MockLogSource.Fetch")
}

var _ domain.LogSource = (*MockLogSource)(nil)

// === Query Log Repository Mock ===

// MockQueryLogRepo implements domain.QueryLogRepository for testing.
type MockQueryLogRepo struct {
	FetchFn  func(ctx context.Context, start, end time.Time, filters domain.QueryFilters) ([]domain.QueryRecord, error)
	InsertFn func(ctx context.Context, records []domain.QueryRecord) error
	ListFn   func(ctx context.Context, filter domain.QueryLogFilter) ([]domain.QueryRecord, int64, error)
	Inserted []domain.QueryRecord // collected records for assertions
}

// Fetch implements the interface method for testing.
func (m *MockQueryLogRepo) Fetch(ctx context.Context, start, end time.Time, filters domain.QueryFilters) ([]domain.QueryRecord, error) {
	if m.FetchFn != nil {
		return m.FetchFn(ctx, start, end, filters)
	}
	panic("unexpected call to MockQueryLogRepo.Fetch")
}

// Insert implements the interface method for testing.
func (m *MockQueryLogRepo) Insert(ctx context.Context, records []domain.QueryRecord) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, records); err != nil {
			return err
		}
	}
	m.Inserted = append(m.Inserted, records...)
	return nil
}

// List implements the interface method for testing.
func (m *MockQueryLogRepo) List(ctx context.Context, filter domain.QueryLogFilter) ([]domain.QueryRecord, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	panic("unexpected call to MockQueryLogRepo.List")
}

var _ domain.QueryLogRepository = (*MockQueryLogRepo)(nil)

// === Run Repository Mock ===

// MockRunRepo implements domain.RunRepository for testing. Insert and
// Update collect by default so pipeline tests can assert on run state
// without wiring a database. Scheduled runs can overlap, so recording
// is guarded by a mutex.
type MockRunRepo struct {
	InsertFn func(ctx context.Context, run *domain.DetectionRun) error
	UpdateFn func(ctx context.Context, run *domain.DetectionRun) error
	GetFn    func(ctx context.Context, id string) (*domain.DetectionRun, error)
	ListFn   func(ctx context.Context, page domain.PageRequest) ([]domain.DetectionRun, int64, error)

	mu       sync.Mutex
	Inserted []domain.DetectionRun // snapshots taken at call time
	Updated  []domain.DetectionRun
}

// Insert implements the interface method for testing.
func (m *MockRunRepo) Insert(ctx context.Context, run *domain.DetectionRun) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, run); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Inserted = append(m.Inserted, *run)
	m.mu.Unlock()
	return nil
}

// Update implements the interface method for testing.
func (m *MockRunRepo) Update(ctx context.Context, run *domain.DetectionRun) error {
	if m.UpdateFn != nil {
		if err := m.UpdateFn(ctx, run); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Updated = append(m.Updated, *run)
	m.mu.Unlock()
	return nil
}

// Get implements the interface method for testing.
func (m *MockRunRepo) Get(ctx context.Context, id string) (*domain.DetectionRun, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	panic("unexpected call to MockRunRepo.Get")
}

// List implements the interface method for testing.
func (m *MockRunRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.DetectionRun, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, page)
	}
	panic("unexpected call to MockRunRepo.List")
}

// LastInserted returns the most recent inserted snapshot, or nil if none.
func (m *MockRunRepo) LastInserted() *domain.DetectionRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Inserted) == 0 {
		return nil
	}
	return &m.Inserted[len(m.Inserted)-1]
}

// LastUpdated returns the most recent updated snapshot, or nil if none.
func (m *MockRunRepo) LastUpdated() *domain.DetectionRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Updated) == 0 {
		return nil
	}
	return &m.Updated[len(m.Updated)-1]
}

var _ domain.RunRepository = (*MockRunRepo)(nil)

// === Finding Repository Mock ===

// FindingBatch records one InsertBatch call.
type FindingBatch struct {
	RunID    string
	Findings []domain.AnomalyFinding
}

// MockFindingRepo implements domain.FindingRepository for testing.
type MockFindingRepo struct {
	InsertBatchFn func(ctx context.Context, runID string, findings []domain.AnomalyFinding) error
	ListFn        func(ctx context.Context, filter domain.FindingFilter) ([]domain.StoredFinding, int64, error)

	mu      sync.Mutex
	Batches []FindingBatch // collected batches for assertions
}

// InsertBatch implements the interface method for testing.
func (m *MockFindingRepo) InsertBatch(ctx context.Context, runID string, findings []domain.AnomalyFinding) error {
	if m.InsertBatchFn != nil {
		if err := m.InsertBatchFn(ctx, runID, findings); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Batches = append(m.Batches, FindingBatch{RunID: runID, Findings: findings})
	m.mu.Unlock()
	return nil
}

// List implements the interface method for testing.
func (m *MockFindingRepo) List(ctx context.Context, filter domain.FindingFilter) ([]domain.StoredFinding, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	panic("unexpected call to MockFindingRepo.List")
}

var _ domain.FindingRepository = (*MockFindingRepo)(nil)

// === Finding Sink Mock ===

// SinkDelivery records one Deliver call.
type SinkDelivery struct {
	Run      *domain.DetectionRun
	Findings []domain.AnomalyFinding
}

// MockFindingSink implements domain.FindingSink for testing.
type MockFindingSink struct {
	SinkName  string // reported by Name; defaults to "mock"
	DeliverFn func(ctx context.Context, run *domain.DetectionRun, findings []domain.AnomalyFinding) error

	mu         sync.Mutex
	Deliveries []SinkDelivery // collected deliveries for assertions
}

// Name implements the interface method for testing.
func (m *MockFindingSink) Name() string {
	if m.SinkName == "" {
		return "mock"
	}
	return m.SinkName
}

// Deliver implements the interface method for testing.
func (m *MockFindingSink) Deliver(ctx context.Context, run *domain.DetectionRun, findings []domain.AnomalyFinding) error {
	m.mu.Lock()
	m.Deliveries = append(m.Deliveries, SinkDelivery{Run: run, Findings: findings})
	m.mu.Unlock()
	if m.DeliverFn != nil {
		return m.DeliverFn(ctx, run, findings)
	}
	return nil
}

var _ domain.FindingSink = (*MockFindingSink)(nil)
