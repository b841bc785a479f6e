package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestSQLite opens a migrated write/read pool pair on a throwaway
// store under t.TempDir(). Both pools are closed when the test finishes.
// Tests that don't care about the split can use writeDB for everything.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	writeDB, readDB, err := OpenSQLitePair(filepath.Join(t.TempDir(), "querywatch_test.sqlite"), 4)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	if err := RunMigrations(writeDB); err != nil {
		_ = writeDB.Close()
		_ = readDB.Close()
		t.Fatalf("migrate test store: %v", err)
	}

	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})
	return writeDB, readDB
}
