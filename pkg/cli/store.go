package cli

import (
	"database/sql"
	"fmt"

	internaldb "querywatch/internal/db"
	"querywatch/internal/db/repository"
)

// store bundles the SQLite pools and repositories the commands share.
// Each command opens it for the duration of one invocation: writes go
// through the single-connection write pool, reads through the read pool.
type store struct {
	writeDB *sql.DB
	readDB  *sql.DB

	queryLog       *repository.QueryLogRepo
	queryLogReader *repository.QueryLogRepo
	runs           *repository.RunRepo
	runsReader     *repository.RunRepo
	findings       *repository.FindingRepo
	findingsReader *repository.FindingRepo
}

func openStore(dbPath string) (*store, error) {
	writeDB, readDB, err := internaldb.OpenSQLitePair(dbPath, 4)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", dbPath, err)
	}
	if err := internaldb.RunMigrations(writeDB); err != nil {
		_ = writeDB.Close()
		_ = readDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &store{
		writeDB:        writeDB,
		readDB:         readDB,
		queryLog:       repository.NewQueryLogRepo(writeDB),
		queryLogReader: repository.NewQueryLogRepo(readDB),
		runs:           repository.NewRunRepo(writeDB),
		runsReader:     repository.NewRunRepo(readDB),
		findings:       repository.NewFindingRepo(writeDB),
		findingsReader: repository.NewFindingRepo(readDB),
	}, nil
}

func (s *store) close() {
	_ = s.readDB.Close()
	_ = s.writeDB.Close()
}
