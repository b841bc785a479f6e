package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/mattn/go-sqlite3"

	"querywatch/internal/config"
	internaldb "querywatch/internal/db"
	"querywatch/internal/middleware"
	"querywatch/internal/ui"
)

// Serve opens the stores, wires the application, and blocks serving
// HTTP until ctx is cancelled. The server binary and the CLI serve
// command both run through here.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// writeDB: single-connection pool for serialized writes (WAL + txlock=immediate).
	// readDB:  4-connection pool for concurrent reads (WAL, no txlock).
	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.DBPath, 4)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer writeDB.Close()
	defer readDB.Close()

	// Run migrations on the write pool (DDL requires write access)
	if err := internaldb.RunMigrations(writeDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// Attach DuckDB when the query log lives in a warehouse file
	var duckDB *sql.DB
	if cfg.SourceDriver == config.SourceDriverDuckDB {
		duckDB, err = sql.Open("duckdb", cfg.DuckDBPath)
		if err != nil {
			return fmt.Errorf("open duckdb: %w", err)
		}
		defer duckDB.Close()
		logger.Info("duckdb source attached", "path", cfg.DuckDBPath, "relation", cfg.SourceRelation)
	}

	a, err := New(Deps{
		Cfg:     cfg,
		WriteDB: writeDB,
		ReadDB:  readDB,
		DuckDB:  duckDB,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if a.Scheduler != nil {
		if err := a.Scheduler.Start(); err != nil {
			return err
		}
		defer a.Scheduler.Stop()
	}

	// Setup Chi router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}).Middleware)

	r.Mount("/", a.API.Routes())
	r.Route("/ui", func(r chi.Router) {
		ui.MountRoutes(r, a.Dashboard)
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("querywatch listening", "addr", cfg.ListenAddr, "source_driver", cfg.SourceDriver)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
