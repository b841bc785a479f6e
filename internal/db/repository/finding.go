package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"querywatch/internal/domain"
)

// FindingRepo stores the findings each detection run produced.
type FindingRepo struct {
	db *sql.DB
}

var _ domain.FindingRepository = (*FindingRepo)(nil)

// NewFindingRepo creates a new FindingRepo.
func NewFindingRepo(db *sql.DB) *FindingRepo {
	return &FindingRepo{db: db}
}

// InsertBatch stores a run's findings inside one transaction, preserving
// the order the pipeline produced them in.
func (r *FindingRepo) InsertBatch(ctx context.Context, runID string, findings []domain.AnomalyFinding) error {
	if len(findings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finding insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO finding (id, run_id, user_name, query_id, start_time, query_text, anomaly_type, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare finding insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for _, f := range findings {
		if _, err := stmt.ExecContext(ctx,
			domain.NewID(), runID, f.UserName, f.QueryID, f.StartTime.UTC(), f.QueryText, string(f.AnomalyType), f.Details, now,
		); err != nil {
			return mapDBError(err)
		}
	}
	return tx.Commit()
}

// List returns a filtered page of stored findings ordered like the
// pipeline's report: user ascending, then most recent query first.
// rowid breaks remaining ties in insertion order.
func (r *FindingRepo) List(ctx context.Context, filter domain.FindingFilter) ([]domain.StoredFinding, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}

	if filter.RunID != nil {
		where += ` AND run_id = ?`
		args = append(args, *filter.RunID)
	}
	if filter.UserName != nil {
		where += ` AND user_name = ?`
		args = append(args, *filter.UserName)
	}
	if filter.AnomalyType != nil {
		where += ` AND anomaly_type = ?`
		args = append(args, string(*filter.AnomalyType))
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM finding`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count findings: %w", err)
	}

	query := `SELECT id, run_id, user_name, query_id, start_time, query_text, anomaly_type, details, created_at
		FROM finding` + where + ` ORDER BY user_name, start_time DESC, rowid LIMIT ? OFFSET ?`
	args = append(args, filter.Page.Limit(), filter.Page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list findings: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var findings []domain.StoredFinding
	for rows.Next() {
		var f domain.StoredFinding
		var anomalyType string
		if err := rows.Scan(&f.ID, &f.RunID, &f.UserName, &f.QueryID, &f.StartTime, &f.QueryText, &anomalyType, &f.Details, &f.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan finding: %w", err)
		}
		f.AnomalyType = domain.AnomalyType(anomalyType)
		f.StartTime = f.StartTime.UTC()
		f.CreatedAt = f.CreatedAt.UTC()
		findings = append(findings, f)
	}
	return findings, total, rows.Err()
}
