package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	licenseetl "github.com/smoketheglobe/license-etl"
	"github.com/smoketheglobe/license-etl/infrastructure/api"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the admin HTTP server",
		Long: `Start the admin HTTP server. The server exposes endpoints to trigger
ETL runs and replay passes and to inspect the quarantine table.

Environment variables:
  HOST                    Server host (default: 0.0.0.0)
  PORT                    Server port (default: 8080)
  DB_URL                  Database URL (required)
  SOURCES_FILE            Path to the YAML source list (default: sources.yml)
  LOG_LEVEL               Log level (default: INFO)
  LOG_FORMAT              Log format, pretty or json (default: pretty)
  EXTRACTION_BASE_URL     Extraction endpoint base URL
  EXTRACTION_API_KEY      Extraction endpoint API key
  EXTRACTION_MODEL        Extraction model (default: gpt-4o-mini)
  SELF_HEAL_ENABLED       Run a replay pass after each run (default: true)
  REPLAY_MIN_AGE_SECONDS  Minimum quarantine age for replay (default: 3600)
  REPLAY_LIMIT            Maximum quarantine records per replay (default: 100)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			if host != "" {
				cfg = cfg.WithHost(host)
			}
			if port != 0 {
				cfg = cfg.WithPort(port)
			}

			app, err := licenseetl.New(licenseetl.WithConfig(cfg))
			if err != nil {
				return fmt.Errorf("create app: %w", err)
			}
			defer func() { _ = app.Close() }()

			server := api.NewServer(cfg.Addr(), app)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env)")
	cmd.Flags().StringVar(&host, "host", "", "Host to bind to (overrides HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (overrides PORT)")

	return cmd
}
