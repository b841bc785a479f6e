// Package app provides application-level wiring and dependency injection
// for the querywatch service following hexagonal architecture.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"querywatch/internal/anomaly"
	"querywatch/internal/api"
	"querywatch/internal/config"
	"querywatch/internal/db/repository"
	"querywatch/internal/domain"
	"querywatch/internal/service/detection"
	"querywatch/internal/sink"
	"querywatch/internal/source/ducklog"
	"querywatch/internal/ui"
)

// Deps holds the external dependencies that main() must provide.
// These are things the app package cannot (or should not) create itself:
// database handles, config, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	DuckDB  *sql.DB // nil unless SOURCE_DRIVER=duckdb
	Logger  *slog.Logger
}

// App holds the fully-wired application: the detection pipeline, the
// optional scheduler, and the HTTP handlers the router mounts.
type App struct {
	Detection *detection.Service
	Scheduler *detection.Scheduler // nil when DETECT_SCHEDULE is unset
	API       *api.Handler
	Dashboard *ui.Handler
}

// New wires repositories, the log source, sinks, and the detection
// pipeline from the provided deps.
func New(deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// === Repositories (write-pool) ===
	queryLogRepo := repository.NewQueryLogRepo(deps.WriteDB)
	runRepo := repository.NewRunRepo(deps.WriteDB)
	findingRepo := repository.NewFindingRepo(deps.WriteDB)

	// === Repositories (read-pool) ===
	queryLogReader := repository.NewQueryLogRepo(deps.ReadDB)
	runReader := repository.NewRunRepo(deps.ReadDB)
	findingReader := repository.NewFindingRepo(deps.ReadDB)

	// === Log source ===
	var source domain.LogSource = queryLogReader
	if cfg.SourceDriver == config.SourceDriverDuckDB {
		if deps.DuckDB == nil {
			return nil, fmt.Errorf("SOURCE_DRIVER=duckdb but no DuckDB handle provided")
		}
		duckSource, err := ducklog.New(deps.DuckDB, cfg.SourceRelation)
		if err != nil {
			return nil, fmt.Errorf("duckdb source: %w", err)
		}
		source = duckSource
		logger.Info("reading query logs from DuckDB", "relation", cfg.SourceRelation)
	}

	// === Sinks ===
	sinks, err := buildSinks(cfg)
	if err != nil {
		return nil, err
	}
	for _, s := range sinks {
		logger.Info("sink enabled", "sink", s.Name())
	}

	// === Detection pipeline ===
	loc, err := cfg.Detection.Location()
	if err != nil {
		return nil, err
	}
	detectSvc := detection.NewService(detection.Deps{
		Source:   source,
		Runs:     runRepo,
		Findings: findingRepo,
		Sinks:    sinks,
		Params: anomaly.Params{
			Location:            loc,
			MinActivity:         cfg.Detection.MinActivity,
			DeviationMultiplier: cfg.Detection.DeviationMultiplier,
		},
		HistoricalWindow: cfg.Detection.HistoricalWindow,
		RecentWindow:     cfg.Detection.RecentWindow,
		Filters: domain.QueryFilters{
			QueryType:    cfg.Detection.QueryType,
			Status:       cfg.Detection.QueryStatus,
			ExcludeUsers: cfg.Detection.SystemAccounts,
		},
		Logger: logger,
	})

	// === Scheduler (only when a cron spec is configured) ===
	var scheduler *detection.Scheduler
	if cfg.Detection.Schedule != "" {
		scheduler = detection.NewScheduler(detectSvc, cfg.Detection.Schedule, logger)
	}

	// === HTTP handlers ===
	// Ingest writes go through the write pool; listings and the
	// dashboard read from the read pool.
	apiHandler := api.NewHandler(api.Deps{
		Runner:   detectSvc,
		Queries:  queryLogRepo,
		Runs:     runReader,
		Findings: findingReader,
		Pinger:   deps.ReadDB,
		Logger:   logger,
	})
	dashboard := ui.NewHandler(ui.Deps{
		Runs:     runReader,
		Findings: findingReader,
		Queries:  queryLogReader,
		Logger:   logger,
	})

	return &App{
		Detection: detectSvc,
		Scheduler: scheduler,
		API:       apiHandler,
		Dashboard: dashboard,
	}, nil
}

// buildSinks constructs the delivery sinks named in cfg.Sinks in the
// order they were configured.
func buildSinks(cfg *config.Config) ([]domain.FindingSink, error) {
	var sinks []domain.FindingSink
	for _, name := range cfg.Sinks {
		switch name {
		case config.SinkConsole:
			sinks = append(sinks, sink.NewConsoleSink(os.Stdout))
		case config.SinkJSONL:
			if cfg.JSONLPath == "" {
				return nil, fmt.Errorf("JSONL_PATH is required when the jsonl sink is enabled")
			}
			sinks = append(sinks, sink.NewJSONLSink(cfg.JSONLPath))
		case config.SinkWebhook:
			if cfg.WebhookURL == "" {
				return nil, fmt.Errorf("WEBHOOK_URL is required when the webhook sink is enabled")
			}
			sinks = append(sinks, sink.NewWebhookSink(cfg.WebhookURL, &http.Client{Timeout: 10 * time.Second}))
		case config.SinkArchive:
			if cfg.ArchiveURL == "" {
				return nil, fmt.Errorf("ARCHIVE_URL is required when the archive sink is enabled")
			}
			archive, err := sink.NewArchiveSink(cfg.ArchiveURL, archiveCredentials(cfg))
			if err != nil {
				return nil, fmt.Errorf("archive sink: %w", err)
			}
			sinks = append(sinks, archive)
		default:
			return nil, fmt.Errorf("unknown sink %q in SINKS", name)
		}
	}
	return sinks, nil
}

// archiveCredentials flattens the optional cloud credential fields into
// the shape the archive sink expects.
func archiveCredentials(cfg *config.Config) sink.ArchiveCredentials {
	creds := sink.ArchiveCredentials{
		GCSKeyFile:       cfg.GCSKeyFile,
		AzureAccountName: cfg.AzureAccountName,
		AzureAccountKey:  cfg.AzureAccountKey,
	}
	if cfg.S3KeyID != nil {
		creds.S3KeyID = *cfg.S3KeyID
	}
	if cfg.S3Secret != nil {
		creds.S3Secret = *cfg.S3Secret
	}
	if cfg.S3Endpoint != nil {
		creds.S3Endpoint = *cfg.S3Endpoint
	}
	if cfg.S3Region != nil {
		creds.S3Region = *cfg.S3Region
	}
	return creds
}
