package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "querywatch/internal/db"
	"querywatch/internal/domain"
)

func setupFindingRepo(t *testing.T) (*FindingRepo, *RunRepo, *sql.DB) {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)
	return NewFindingRepo(writeDB), NewRunRepo(writeDB), writeDB
}

// insertTestRun stores a run row so finding inserts satisfy the FK.
func insertTestRun(t *testing.T, runs *RunRepo, id string) {
	t.Helper()
	run := newTestRun(time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC))
	run.ID = id
	require.NoError(t, runs.Insert(context.Background(), run))
}

func testFinding(user, queryID string, at time.Time, anomaly domain.AnomalyType) domain.AnomalyFinding {
	return domain.AnomalyFinding{
		UserName:    user,
		QueryID:     queryID,
		StartTime:   at,
		QueryText:   "SELECT * FROM payroll",
		AnomalyType: anomaly,
		Details:     "details for " + queryID,
	}
}

func TestFindingRepo_InsertBatchAndList(t *testing.T) {
	findings, runs, _ := setupFindingRepo(t)
	ctx := context.Background()
	insertTestRun(t, runs, "run-1")
	at := time.Date(2026, 8, 25, 3, 0, 0, 0, time.UTC)

	batch := []domain.AnomalyFinding{
		testFinding("alice", "q1", at, domain.AnomalyTimeOfDay),
		testFinding("alice", "q1", at, domain.AnomalyComplexity),
	}
	require.NoError(t, findings.InsertBatch(ctx, "run-1", batch))

	got, total, err := findings.List(ctx, domain.FindingFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, got, 2)

	f := got[0]
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, "run-1", f.RunID)
	assert.Equal(t, "alice", f.UserName)
	assert.Equal(t, "q1", f.QueryID)
	assert.True(t, f.StartTime.Equal(at))
	assert.Equal(t, "SELECT * FROM payroll", f.QueryText)
	assert.Equal(t, domain.AnomalyTimeOfDay, f.AnomalyType)
	assert.Equal(t, "details for q1", f.Details)
	assert.False(t, f.CreatedAt.IsZero())
}

func TestFindingRepo_InsertBatch_EmptyIsNoop(t *testing.T) {
	findings, _, _ := setupFindingRepo(t)
	require.NoError(t, findings.InsertBatch(context.Background(), "run-1", nil))
}

func TestFindingRepo_InsertBatch_RequiresRun(t *testing.T) {
	findings, _, _ := setupFindingRepo(t)
	at := time.Date(2026, 8, 25, 3, 0, 0, 0, time.UTC)

	err := findings.InsertBatch(context.Background(), "ghost-run", []domain.AnomalyFinding{
		testFinding("alice", "q1", at, domain.AnomalyTimeOfDay),
	})
	assert.Error(t, err, "foreign key to detection_run should reject unknown runs")
}

func TestFindingRepo_List_ReportOrder(t *testing.T) {
	findings, runs, _ := setupFindingRepo(t)
	ctx := context.Background()
	insertTestRun(t, runs, "run-1")
	base := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	// Stored in pipeline order: users ascending, newest query first,
	// detector order within one query.
	batch := []domain.AnomalyFinding{
		testFinding("alice", "a-new", base.Add(2*time.Hour), domain.AnomalyTimeOfDay),
		testFinding("alice", "a-new", base.Add(2*time.Hour), domain.AnomalyTableAccess),
		testFinding("alice", "a-old", base.Add(time.Hour), domain.AnomalyComplexity),
		testFinding("bob", "b-1", base.Add(3*time.Hour), domain.AnomalyTimeOfDay),
	}
	require.NoError(t, findings.InsertBatch(ctx, "run-1", batch))

	got, _, err := findings.List(ctx, domain.FindingFilter{})
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "alice", got[0].UserName)
	assert.Equal(t, "a-new", got[0].QueryID)
	assert.Equal(t, domain.AnomalyTimeOfDay, got[0].AnomalyType)
	assert.Equal(t, "a-new", got[1].QueryID)
	assert.Equal(t, domain.AnomalyTableAccess, got[1].AnomalyType)
	assert.Equal(t, "a-old", got[2].QueryID)
	assert.Equal(t, "bob", got[3].UserName)
}

func TestFindingRepo_List_Filters(t *testing.T) {
	findings, runs, _ := setupFindingRepo(t)
	ctx := context.Background()
	insertTestRun(t, runs, "run-1")
	insertTestRun(t, runs, "run-2")
	at := time.Date(2026, 8, 25, 3, 0, 0, 0, time.UTC)

	require.NoError(t, findings.InsertBatch(ctx, "run-1", []domain.AnomalyFinding{
		testFinding("alice", "q1", at, domain.AnomalyTimeOfDay),
		testFinding("bob", "q2", at, domain.AnomalyComplexity),
	}))
	require.NoError(t, findings.InsertBatch(ctx, "run-2", []domain.AnomalyFinding{
		testFinding("alice", "q3", at, domain.AnomalyTableAccess),
	}))

	t.Run("by run", func(t *testing.T) {
		runID := "run-2"
		got, total, err := findings.List(ctx, domain.FindingFilter{RunID: &runID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, got, 1)
		assert.Equal(t, "q3", got[0].QueryID)
	})

	t.Run("by user", func(t *testing.T) {
		user := "alice"
		_, total, err := findings.List(ctx, domain.FindingFilter{UserName: &user})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("by anomaly type", func(t *testing.T) {
		anomaly := domain.AnomalyComplexity
		got, total, err := findings.List(ctx, domain.FindingFilter{AnomalyType: &anomaly})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, got, 1)
		assert.Equal(t, "bob", got[0].UserName)
	})

	t.Run("combined", func(t *testing.T) {
		runID, user := "run-1", "alice"
		_, total, err := findings.List(ctx, domain.FindingFilter{RunID: &runID, UserName: &user})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})
}

func TestFindingRepo_List_Pagination(t *testing.T) {
	findings, runs, _ := setupFindingRepo(t)
	ctx := context.Background()
	insertTestRun(t, runs, "run-1")
	base := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	var batch []domain.AnomalyFinding
	for i := 0; i < 5; i++ {
		batch = append(batch, testFinding("alice", "q", base.Add(time.Duration(-i)*time.Minute), domain.AnomalyTimeOfDay))
	}
	require.NoError(t, findings.InsertBatch(ctx, "run-1", batch))

	page1, total, err := findings.List(ctx, domain.FindingFilter{Page: domain.PageRequest{MaxResults: 3}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page1, 3)

	page2, _, err := findings.List(ctx, domain.FindingFilter{
		Page: domain.PageRequest{MaxResults: 3, PageToken: domain.EncodePageToken(3)},
	})
	require.NoError(t, err)
	assert.Len(t, page2, 2)
}

func TestFindingRepo_DeleteRunCascades(t *testing.T) {
	findings, runs, db := setupFindingRepo(t)
	ctx := context.Background()
	insertTestRun(t, runs, "run-1")
	at := time.Date(2026, 8, 25, 3, 0, 0, 0, time.UTC)

	require.NoError(t, findings.InsertBatch(ctx, "run-1", []domain.AnomalyFinding{
		testFinding("alice", "q1", at, domain.AnomalyTimeOfDay),
	}))

	_, err := db.ExecContext(ctx, `DELETE FROM detection_run WHERE id = 'run-1'`)
	require.NoError(t, err)

	_, total, err := findings.List(ctx, domain.FindingFilter{})
	require.NoError(t, err)
	assert.Zero(t, total, "findings should cascade with their run")
}
