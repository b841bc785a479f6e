// Package ducklog reads query-log records from a DuckDB database:
// warehouse-resident history tables, or parquet exports addressed with
// a read_parquet(...) relation.
package ducklog

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"querywatch/internal/domain"
)

// relationPattern accepts a plain (optionally schema-qualified) identifier
// or a single-file read_parquet('...') call. The relation is spliced into
// the query text, so anything else is rejected up front.
var relationPattern = regexp.MustCompile(`^(?:[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)?|read_parquet\('[^']+'\))$`)

// Source implements domain.LogSource against DuckDB. The relation must
// expose the query-log columns: user_name, query_id, start_time,
// query_text, execution_status, query_type.
type Source struct {
	db       *sql.DB
	relation string
}

var _ domain.LogSource = (*Source)(nil)

// New validates the configured relation and returns a Source reading
// from it.
func New(db *sql.DB, relation string) (*Source, error) {
	if !relationPattern.MatchString(relation) {
		return nil, domain.ErrValidation("invalid source relation %q: must be a table name or read_parquet('<path>')", relation)
	}
	return &Source{db: db, relation: relation}, nil
}

// Fetch returns records with start_time in [start, end) matching the
// filters, ordered by start_time ascending.
func (s *Source) Fetch(ctx context.Context, start, end time.Time, filters domain.QueryFilters) ([]domain.QueryRecord, error) {
	query := fmt.Sprintf(
		`SELECT user_name, query_id, start_time, query_text, execution_status, query_type
		FROM %s WHERE start_time >= ? AND start_time < ?`, s.relation)
	args := []any{start.UTC(), end.UTC()}

	if filters.QueryType != "" {
		query += ` AND query_type = ?`
		args = append(args, filters.QueryType)
	}
	if filters.Status != "" {
		query += ` AND execution_status = ?`
		args = append(args, filters.Status)
	}
	for _, u := range filters.ExcludeUsers {
		query += ` AND user_name <> ?`
		args = append(args, u)
	}
	query += ` ORDER BY start_time`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch from %s: %w", s.relation, err)
	}
	defer rows.Close() //nolint:errcheck

	var records []domain.QueryRecord
	for rows.Next() {
		var rec domain.QueryRecord
		if err := rows.Scan(&rec.UserName, &rec.QueryID, &rec.StartTime, &rec.QueryText, &rec.ExecutionStatus, &rec.QueryType); err != nil {
			return nil, fmt.Errorf("scan record from %s: %w", s.relation, err)
		}
		rec.StartTime = rec.StartTime.UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}
