package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"querywatch/internal/domain"
)

// QueryLogRepo stores and serves ingested query-log records. It doubles
// as the sqlite log source for the detection pipeline.
type QueryLogRepo struct {
	db *sql.DB
}

var _ domain.QueryLogRepository = (*QueryLogRepo)(nil)

// NewQueryLogRepo creates a new QueryLogRepo.
func NewQueryLogRepo(db *sql.DB) *QueryLogRepo {
	return &QueryLogRepo{db: db}
}

// Fetch returns records with start_time in [start, end) matching the
// filters, ordered by start_time ascending.
func (r *QueryLogRepo) Fetch(ctx context.Context, start, end time.Time, filters domain.QueryFilters) ([]domain.QueryRecord, error) {
	query := `SELECT user_name, query_id, start_time, query_text, execution_status, query_type
		FROM query_log WHERE start_time >= ? AND start_time < ?`
	args := []any{start.UTC(), end.UTC()}

	if filters.QueryType != "" {
		query += ` AND query_type = ?`
		args = append(args, filters.QueryType)
	}
	if filters.Status != "" {
		query += ` AND execution_status = ?`
		args = append(args, filters.Status)
	}
	if len(filters.ExcludeUsers) > 0 {
		query += ` AND user_name NOT IN (` + placeholders(len(filters.ExcludeUsers)) + `)`
		for _, u := range filters.ExcludeUsers {
			args = append(args, u)
		}
	}
	query += ` ORDER BY start_time`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch query log: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var records []domain.QueryRecord
	for rows.Next() {
		var rec domain.QueryRecord
		if err := rows.Scan(&rec.UserName, &rec.QueryID, &rec.StartTime, &rec.QueryText, &rec.ExecutionStatus, &rec.QueryType); err != nil {
			return nil, fmt.Errorf("scan query log row: %w", err)
		}
		rec.StartTime = rec.StartTime.UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Insert bulk-loads records inside one transaction. Records whose
// query_id is already present are skipped, so re-ingesting the same
// export is safe.
func (r *QueryLogRepo) Insert(ctx context.Context, records []domain.QueryRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin query log insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO query_log (query_id, user_name, start_time, query_text, execution_status, query_type)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare query log insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.QueryID, rec.UserName, rec.StartTime.UTC(), rec.QueryText, rec.ExecutionStatus, rec.QueryType,
		); err != nil {
			return mapDBError(err)
		}
	}
	return tx.Commit()
}

// List returns a filtered, paginated page of the query log, newest first.
func (r *QueryLogRepo) List(ctx context.Context, filter domain.QueryLogFilter) ([]domain.QueryRecord, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}

	if filter.UserName != nil {
		where += ` AND user_name = ?`
		args = append(args, *filter.UserName)
	}
	if filter.Status != nil {
		where += ` AND execution_status = ?`
		args = append(args, *filter.Status)
	}
	if filter.QueryType != nil {
		where += ` AND query_type = ?`
		args = append(args, *filter.QueryType)
	}
	if filter.From != nil {
		where += ` AND start_time >= ?`
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		where += ` AND start_time < ?`
		args = append(args, filter.To.UTC())
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM query_log`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count query log: %w", err)
	}

	query := `SELECT user_name, query_id, start_time, query_text, execution_status, query_type
		FROM query_log` + where + ` ORDER BY start_time DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Page.Limit(), filter.Page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list query log: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var records []domain.QueryRecord
	for rows.Next() {
		var rec domain.QueryRecord
		if err := rows.Scan(&rec.UserName, &rec.QueryID, &rec.StartTime, &rec.QueryText, &rec.ExecutionStatus, &rec.QueryType); err != nil {
			return nil, 0, fmt.Errorf("scan query log row: %w", err)
		}
		rec.StartTime = rec.StartTime.UTC()
		records = append(records, rec)
	}
	return records, total, rows.Err()
}
