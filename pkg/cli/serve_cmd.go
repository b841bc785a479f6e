package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"querywatch/internal/app"
	"querywatch/internal/config"
)

func newServeCmd(dbPath *string) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the querywatch HTTP server and dashboard",
		Long: `Serve starts the full querywatch server: the ingest and detection API,
the findings dashboard under /ui, and the cron scheduler when
DETECT_SCHEDULE is set. Configuration comes from the environment (and an
optional .env file); --db and --listen override the store path and
listen address.`,
		Example: `  # Serve on the default :8080
  querywatch serve

  # Scratch store on another port
  querywatch serve --db ./scratch.sqlite --listen :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, *dbPath, listenAddr)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (default from LISTEN_ADDR or :8080)")

	return cmd
}

func runServe(cmd *cobra.Command, dbPath, listenAddr string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cmd.Root().PersistentFlags().Changed("db") {
		cfg.DBPath = dbPath
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return app.Serve(ctx, cfg, logger)
}
