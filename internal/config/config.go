// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// DetectionConfig holds the statistical parameters of the detection pipeline.
type DetectionConfig struct {
	Timezone            string        // IANA timezone for local-hour derivation (default "UTC")
	HistoricalWindow    time.Duration // baseline lookback (default 720h = 30 days)
	RecentWindow        time.Duration // evaluation window (default 24h)
	MinActivity         int           // minimum historical records per user (default 20)
	DeviationMultiplier float64       // stddev multiplier for length anomalies (default 3)
	QueryType           string        // query type considered analytical (default "SELECT")
	QueryStatus         string        // execution status considered complete (default "SUCCESS")
	SystemAccounts      []string      // user names excluded from analysis (default ["SYSTEM"])
	Schedule            string        // cron expression for scheduled runs (empty disables)
}

// Location resolves the configured timezone.
func (d *DetectionConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", d.Timezone, err)
	}
	return loc, nil
}

// Validate checks that the detection parameters are internally consistent.
func (d *DetectionConfig) Validate() error {
	if _, err := time.LoadLocation(d.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q is not a valid IANA timezone", d.Timezone)
	}
	if d.HistoricalWindow <= 0 {
		return fmt.Errorf("HISTORICAL_WINDOW must be positive, got %s", d.HistoricalWindow)
	}
	if d.RecentWindow <= 0 {
		return fmt.Errorf("RECENT_WINDOW must be positive, got %s", d.RecentWindow)
	}
	if d.RecentWindow > d.HistoricalWindow {
		return fmt.Errorf("RECENT_WINDOW (%s) must not exceed HISTORICAL_WINDOW (%s)", d.RecentWindow, d.HistoricalWindow)
	}
	if d.MinActivity < 1 {
		return fmt.Errorf("MIN_ACTIVITY must be at least 1, got %d", d.MinActivity)
	}
	if d.DeviationMultiplier <= 0 {
		return fmt.Errorf("DEVIATION_MULTIPLIER must be positive, got %g", d.DeviationMultiplier)
	}
	return nil
}

// Source drivers for the query-log feed.
const (
	SourceDriverSQLite = "sqlite"
	SourceDriverDuckDB = "duckdb"
)

// Known sink names accepted in SINKS.
const (
	SinkConsole = "console"
	SinkJSONL   = "jsonl"
	SinkWebhook = "webhook"
	SinkArchive = "archive"
)

// Config holds the configuration for the detection service, HTTP API and sinks.
type Config struct {
	// Detection holds the statistical policy for baseline building and scoring.
	Detection DetectionConfig

	// Query-log source selection.
	SourceDriver   string // "sqlite" (default, reads the local store) or "duckdb"
	DuckDBPath     string // DuckDB database file (required for duckdb driver)
	SourceRelation string // table name or read_parquet(...) call in the DuckDB database

	DBPath     string // path to the SQLite store (default "querywatch.sqlite")
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	// Finding sinks.
	Sinks      []string // enabled sinks (default: none; findings are stored only)
	JSONLPath  string   // output path for the jsonl sink
	WebhookURL string   // target for the webhook sink
	ArchiveURL string   // s3://bucket/prefix, az://container/prefix or gs://bucket/prefix

	// Object store credentials. S3 fields are optional, nil when not configured.
	S3KeyID          *string
	S3Secret         *string
	S3Endpoint       *string
	S3Region         *string
	GCSKeyFile       string // service-account key file for the gs:// backend
	AzureAccountName string
	AzureAccountKey  string

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the service is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// HasS3Config returns true if all required S3 fields are set.
func (c *Config) HasS3Config() bool {
	return c.S3KeyID != nil && c.S3Secret != nil &&
		c.S3Endpoint != nil && c.S3Region != nil
}

// SinkEnabled reports whether the named sink appears in SINKS.
func (c *Config) SinkEnabled(name string) bool {
	for _, s := range c.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// LoadFromEnv loads configuration from environment variables. An optional
// YAML policy file (POLICY_FILE) supplies detection defaults; environment
// variables take precedence over the policy file.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		SourceDriver:     os.Getenv("SOURCE_DRIVER"),
		DuckDBPath:       os.Getenv("DUCKDB_PATH"),
		SourceRelation:   os.Getenv("SOURCE_RELATION"),
		DBPath:           os.Getenv("DB_PATH"),
		ListenAddr:       os.Getenv("LISTEN_ADDR"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		Env:              os.Getenv("ENV"),
		JSONLPath:        os.Getenv("JSONL_PATH"),
		WebhookURL:       os.Getenv("WEBHOOK_URL"),
		ArchiveURL:       os.Getenv("ARCHIVE_URL"),
		GCSKeyFile:       os.Getenv("GCS_KEY_FILE"),
		AzureAccountName: os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:  os.Getenv("AZURE_ACCOUNT_KEY"),
	}

	// The policy file layers under the environment: load it first so any
	// detection variable set in the environment overrides it below.
	if path := os.Getenv("POLICY_FILE"); path != "" {
		policy, err := LoadPolicyFile(path)
		if err != nil {
			return nil, err
		}
		if err := policy.apply(cfg); err != nil {
			return nil, err
		}
	}

	// Detection parameters
	if v := os.Getenv("DETECT_SCHEDULE"); v != "" {
		cfg.Detection.Schedule = v
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		cfg.Detection.Timezone = v
	}
	if v := os.Getenv("HISTORICAL_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse HISTORICAL_WINDOW: %w", err)
		}
		cfg.Detection.HistoricalWindow = d
	}
	if v := os.Getenv("RECENT_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse RECENT_WINDOW: %w", err)
		}
		cfg.Detection.RecentWindow = d
	}
	if v := os.Getenv("MIN_ACTIVITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse MIN_ACTIVITY: %w", err)
		}
		cfg.Detection.MinActivity = n
	}
	if v := os.Getenv("DEVIATION_MULTIPLIER"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse DEVIATION_MULTIPLIER: %w", err)
		}
		cfg.Detection.DeviationMultiplier = f
	}
	if v := os.Getenv("QUERY_TYPE"); v != "" {
		cfg.Detection.QueryType = v
	}
	if v := os.Getenv("QUERY_STATUS"); v != "" {
		cfg.Detection.QueryStatus = v
	}
	if v := os.Getenv("SYSTEM_ACCOUNTS"); v != "" {
		cfg.Detection.SystemAccounts = compactNonEmpty(splitTrimmed(v))
	}

	// Sinks
	if v := os.Getenv("SINKS"); v != "" {
		cfg.Sinks = compactNonEmpty(splitTrimmed(strings.ToLower(v)))
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// S3 fields are optional, only set if present
	if v := os.Getenv("KEY_ID"); v != "" {
		cfg.S3KeyID = &v
	}
	if v := os.Getenv("SECRET"); v != "" {
		cfg.S3Secret = &v
	}
	if v := os.Getenv("ENDPOINT"); v != "" {
		cfg.S3Endpoint = &v
	}
	if v := os.Getenv("REGION"); v != "" {
		cfg.S3Region = &v
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitTrimmed(v)
	}

	// Defaults
	if cfg.Detection.Timezone == "" {
		cfg.Detection.Timezone = "UTC"
	}
	if cfg.Detection.HistoricalWindow == 0 {
		cfg.Detection.HistoricalWindow = 720 * time.Hour
	}
	if cfg.Detection.RecentWindow == 0 {
		cfg.Detection.RecentWindow = 24 * time.Hour
	}
	if cfg.Detection.MinActivity == 0 {
		cfg.Detection.MinActivity = 20
	}
	if cfg.Detection.DeviationMultiplier == 0 {
		cfg.Detection.DeviationMultiplier = 3
	}
	if cfg.Detection.QueryType == "" {
		cfg.Detection.QueryType = "SELECT"
	}
	if cfg.Detection.QueryStatus == "" {
		cfg.Detection.QueryStatus = "SUCCESS"
	}
	if cfg.Detection.SystemAccounts == nil {
		cfg.Detection.SystemAccounts = []string{"SYSTEM"}
	}
	if cfg.SourceDriver == "" {
		cfg.SourceDriver = SourceDriverSQLite
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "querywatch.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if err := cfg.Detection.Validate(); err != nil {
		return nil, err
	}

	switch cfg.SourceDriver {
	case SourceDriverSQLite:
	case SourceDriverDuckDB:
		if cfg.DuckDBPath == "" {
			return nil, fmt.Errorf("DUCKDB_PATH is required when SOURCE_DRIVER=duckdb")
		}
		if cfg.SourceRelation == "" {
			return nil, fmt.Errorf("SOURCE_RELATION is required when SOURCE_DRIVER=duckdb")
		}
	default:
		return nil, fmt.Errorf("unknown SOURCE_DRIVER %q (expected %q or %q)", cfg.SourceDriver, SourceDriverSQLite, SourceDriverDuckDB)
	}

	for _, s := range cfg.Sinks {
		switch s {
		case SinkConsole, SinkJSONL, SinkWebhook, SinkArchive:
		default:
			return nil, fmt.Errorf("unknown sink %q in SINKS (expected console, jsonl, webhook or archive)", s)
		}
	}
	if cfg.SinkEnabled(SinkJSONL) && cfg.JSONLPath == "" {
		return nil, fmt.Errorf("JSONL_PATH is required when the jsonl sink is enabled")
	}
	if cfg.SinkEnabled(SinkWebhook) && cfg.WebhookURL == "" {
		return nil, fmt.Errorf("WEBHOOK_URL is required when the webhook sink is enabled")
	}
	if cfg.SinkEnabled(SinkArchive) && cfg.ArchiveURL == "" {
		return nil, fmt.Errorf("ARCHIVE_URL is required when the archive sink is enabled")
	}

	if cfg.Detection.Schedule == "" {
		cfg.Warnings = append(cfg.Warnings, "DETECT_SCHEDULE not set; detection runs only on demand")
	}
	if len(cfg.Sinks) == 0 {
		cfg.Warnings = append(cfg.Warnings, "SINKS not set; findings are stored but not delivered")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
		if strings.HasPrefix(cfg.WebhookURL, "http://") {
			cfg.Warnings = append(cfg.Warnings, "WEBHOOK_URL uses plain http in production; findings are delivered unencrypted")
		}
	}

	return cfg, nil
}

func splitTrimmed(v string) []string {
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
