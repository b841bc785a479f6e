package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"querywatch/internal/domain"
)

// RunRepo stores detection-run history.
type RunRepo struct {
	db *sql.DB
}

var _ domain.RunRepository = (*RunRepo)(nil)

// NewRunRepo creates a new RunRepo.
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db}
}

// Insert stores a new run row. The pipeline inserts the run in RUNNING
// state before fetching anything so every attempt leaves a trace.
func (r *RunRepo) Insert(ctx context.Context, run *domain.DetectionRun) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO detection_run (
			id, trigger_type, status,
			historical_from, historical_to, recent_from, recent_to,
			historical_count, recent_count, baseline_users, finding_count,
			started_at, finished_at, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Trigger, run.Status,
		run.HistoricalFrom.UTC(), run.HistoricalTo.UTC(), run.RecentFrom.UTC(), run.RecentTo.UTC(),
		run.HistoricalCount, run.RecentCount, run.BaselineUsers, run.FindingCount,
		run.StartedAt.UTC(), nullableTime(run.FinishedAt), run.Error,
	)
	return mapDBError(err)
}

// Update rewrites the mutable columns of an existing run.
func (r *RunRepo) Update(ctx context.Context, run *domain.DetectionRun) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE detection_run SET
			status = ?,
			historical_count = ?, recent_count = ?, baseline_users = ?, finding_count = ?,
			finished_at = ?, error = ?
		WHERE id = ?`,
		run.Status,
		run.HistoricalCount, run.RecentCount, run.BaselineUsers, run.FindingCount,
		nullableTime(run.FinishedAt), run.Error,
		run.ID,
	)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update detection run: %w", err)
	}
	if n == 0 {
		return &domain.NotFoundError{Message: "detection run not found"}
	}
	return nil
}

// Get returns a run by ID.
func (r *RunRepo) Get(ctx context.Context, id string) (*domain.DetectionRun, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, trigger_type, status,
			historical_from, historical_to, recent_from, recent_to,
			historical_count, recent_count, baseline_users, finding_count,
			started_at, finished_at, error
		FROM detection_run WHERE id = ?`, id)

	run, err := scanRun(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Message: "detection run not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("get detection run: %w", err)
	}
	return run, nil
}

// List returns a page of run history, newest first.
func (r *RunRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.DetectionRun, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM detection_run`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count detection runs: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, trigger_type, status,
			historical_from, historical_to, recent_from, recent_to,
			historical_count, recent_count, baseline_users, finding_count,
			started_at, finished_at, error
		FROM detection_run ORDER BY started_at DESC, id LIMIT ? OFFSET ?`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list detection runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var runs []domain.DetectionRun
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan detection run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, total, rows.Err()
}

// scanRun reads one detection_run row via the given Scan function.
func scanRun(scan func(dest ...any) error) (*domain.DetectionRun, error) {
	var run domain.DetectionRun
	var finishedAt sql.NullTime
	var errMsg sql.NullString

	if err := scan(
		&run.ID, &run.Trigger, &run.Status,
		&run.HistoricalFrom, &run.HistoricalTo, &run.RecentFrom, &run.RecentTo,
		&run.HistoricalCount, &run.RecentCount, &run.BaselineUsers, &run.FindingCount,
		&run.StartedAt, &finishedAt, &errMsg,
	); err != nil {
		return nil, err
	}

	run.HistoricalFrom = run.HistoricalFrom.UTC()
	run.HistoricalTo = run.HistoricalTo.UTC()
	run.RecentFrom = run.RecentFrom.UTC()
	run.RecentTo = run.RecentTo.UTC()
	run.StartedAt = run.StartedAt.UTC()
	if finishedAt.Valid {
		t := finishedAt.Time.UTC()
		run.FinishedAt = &t
	}
	if errMsg.Valid {
		run.Error = &errMsg.String
	}
	return &run, nil
}
