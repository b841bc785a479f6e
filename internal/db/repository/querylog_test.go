package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "querywatch/internal/db"
	"querywatch/internal/domain"
)

func setupQueryLogRepo(t *testing.T) *QueryLogRepo {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)
	return NewQueryLogRepo(writeDB)
}

func qlPtrStr(s string) *string { return &s }

// qlRecord builds a SELECT/SUCCESS record at the given UTC time.
func qlRecord(id, user string, at time.Time) domain.QueryRecord {
	return domain.QueryRecord{
		UserName:        user,
		QueryID:         id,
		StartTime:       at,
		QueryText:       "SELECT * FROM orders",
		ExecutionStatus: "SUCCESS",
		QueryType:       "SELECT",
	}
}

func TestQueryLogRepo_InsertAndFetch(t *testing.T) {
	repo := setupQueryLogRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, []domain.QueryRecord{
		qlRecord("q1", "alice", base),
		qlRecord("q2", "bob", base.Add(time.Hour)),
	}))

	records, err := repo.Fetch(ctx, base, base.Add(2*time.Hour), domain.QueryFilters{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "alice", records[0].UserName)
	assert.Equal(t, "q1", records[0].QueryID)
	assert.Equal(t, "SELECT * FROM orders", records[0].QueryText)
	assert.Equal(t, "SUCCESS", records[0].ExecutionStatus)
	assert.Equal(t, "SELECT", records[0].QueryType)
	assert.True(t, records[0].StartTime.Equal(base), "start time round-trip: got %v", records[0].StartTime)
}

func TestQueryLogRepo_FetchWindowIsHalfOpen(t *testing.T) {
	repo := setupQueryLogRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, []domain.QueryRecord{
		qlRecord("before", "alice", base.Add(-time.Second)),
		qlRecord("at-start", "alice", base),
		qlRecord("inside", "alice", base.Add(time.Hour)),
		qlRecord("at-end", "alice", base.Add(24*time.Hour)),
	}))

	records, err := repo.Fetch(ctx, base, base.Add(24*time.Hour), domain.QueryFilters{})
	require.NoError(t, err)

	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.QueryID
	}
	assert.Equal(t, []string{"at-start", "inside"}, ids)
}

func TestQueryLogRepo_FetchFilters(t *testing.T) {
	repo := setupQueryLogRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	insert := qlRecord("q1", "alice", base)
	failed := qlRecord("q2", "alice", base.Add(time.Minute))
	failed.ExecutionStatus = "FAILED"
	ddl := qlRecord("q3", "alice", base.Add(2*time.Minute))
	ddl.QueryType = "CREATE"
	system := qlRecord("q4", "SYSTEM", base.Add(3*time.Minute))
	etl := qlRecord("q5", "ETL_BOT", base.Add(4*time.Minute))

	require.NoError(t, repo.Insert(ctx, []domain.QueryRecord{insert, failed, ddl, system, etl}))

	records, err := repo.Fetch(ctx, base, base.Add(time.Hour), domain.QueryFilters{
		QueryType:    "SELECT",
		Status:       "SUCCESS",
		ExcludeUsers: []string{"SYSTEM", "ETL_BOT"},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "q1", records[0].QueryID)
}

func TestQueryLogRepo_FetchOrdersByStartTime(t *testing.T) {
	repo := setupQueryLogRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// Insert out of order.
	require.NoError(t, repo.Insert(ctx, []domain.QueryRecord{
		qlRecord("late", "alice", base.Add(3*time.Hour)),
		qlRecord("early", "alice", base.Add(time.Hour)),
		qlRecord("mid", "alice", base.Add(2*time.Hour)),
	}))

	records, err := repo.Fetch(ctx, base, base.Add(24*time.Hour), domain.QueryFilters{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "early", records[0].QueryID)
	assert.Equal(t, "mid", records[1].QueryID)
	assert.Equal(t, "late", records[2].QueryID)
}

func TestQueryLogRepo_InsertIgnoresDuplicates(t *testing.T) {
	repo := setupQueryLogRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, []domain.QueryRecord{qlRecord("q1", "alice", base)}))
	// Same export re-ingested.
	require.NoError(t, repo.Insert(ctx, []domain.QueryRecord{
		qlRecord("q1", "alice", base),
		qlRecord("q2", "alice", base.Add(time.Minute)),
	}))

	_, total, err := repo.List(ctx, domain.QueryLogFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestQueryLogRepo_InsertEmptyIsNoop(t *testing.T) {
	repo := setupQueryLogRepo(t)
	require.NoError(t, repo.Insert(context.Background(), nil))
}

func TestQueryLogRepo_List(t *testing.T) {
	repo := setupQueryLogRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	var records []domain.QueryRecord
	for i := 0; i < 5; i++ {
		rec := qlRecord(fmt.Sprintf("a%d", i), "alice", base.Add(time.Duration(i)*time.Minute))
		records = append(records, rec)
	}
	bobRec := qlRecord("b1", "bob", base.Add(10*time.Minute))
	bobRec.ExecutionStatus = "FAILED"
	records = append(records, bobRec)
	require.NoError(t, repo.Insert(ctx, records))

	t.Run("newest first", func(t *testing.T) {
		got, total, err := repo.List(ctx, domain.QueryLogFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
		require.Len(t, got, 6)
		assert.Equal(t, "b1", got[0].QueryID)
		assert.Equal(t, "a4", got[1].QueryID)
	})

	t.Run("filter by user", func(t *testing.T) {
		got, total, err := repo.List(ctx, domain.QueryLogFilter{UserName: qlPtrStr("bob")})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, got, 1)
		assert.Equal(t, "b1", got[0].QueryID)
	})

	t.Run("filter by status", func(t *testing.T) {
		_, total, err := repo.List(ctx, domain.QueryLogFilter{Status: qlPtrStr("FAILED")})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("filter by time range", func(t *testing.T) {
		from := base.Add(2 * time.Minute)
		to := base.Add(5 * time.Minute)
		got, total, err := repo.List(ctx, domain.QueryLogFilter{From: &from, To: &to})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, got, 3)
		// Half-open window: a2 at +2m is in, a4 at +4m is the last in.
		assert.Equal(t, "a4", got[0].QueryID)
		assert.Equal(t, "a2", got[2].QueryID)
	})

	t.Run("pagination", func(t *testing.T) {
		got, total, err := repo.List(ctx, domain.QueryLogFilter{
			Page: domain.PageRequest{MaxResults: 2},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
		assert.Len(t, got, 2)

		got2, _, err := repo.List(ctx, domain.QueryLogFilter{
			Page: domain.PageRequest{MaxResults: 2, PageToken: domain.EncodePageToken(2)},
		})
		require.NoError(t, err)
		require.Len(t, got2, 2)
		assert.NotEqual(t, got[0].QueryID, got2[0].QueryID)
	})
}
