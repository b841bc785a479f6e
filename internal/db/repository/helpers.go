// Package repository implements domain repository interfaces using SQLite.
//
// All timestamps are normalised to UTC before they hit the driver so the
// stored text form is uniform and range predicates compare correctly.
package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"querywatch/internal/domain"
)

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &domain.ConflictError{Message: "resource already exists"}
	}
	return err
}

// placeholders returns n comma-separated "?" markers for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// nullableTime converts an optional timestamp to a driver argument.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
