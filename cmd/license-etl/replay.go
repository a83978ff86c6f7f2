package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	licenseetl "github.com/smoketheglobe/license-etl"
	appservice "github.com/smoketheglobe/license-etl/application/service"
)

func replayCmd() *cobra.Command {
	var (
		envFile  string
		dbURL    string
		sourceID string
		minAge   time.Duration
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Retry quarantined inputs",
		Long: `Retry quarantined inputs through extraction and validation, and
upsert whatever now parses. Quarantine records are never deleted or
rewritten; recoveries show up as upserted licenses and failures are
simply counted.

Only records older than --min-age are retried, so a record is not
replayed in the same pass that quarantined it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			if dbURL != "" {
				cfg = cfg.WithDBURL(dbURL)
			}
			if minAge < 0 {
				return fmt.Errorf("min-age must not be negative")
			}
			if minAge == 0 {
				minAge = cfg.ReplayMinAge()
			}
			if limit == 0 {
				limit = cfg.ReplayLimit()
			}

			app, err := licenseetl.New(licenseetl.WithConfig(cfg))
			if err != nil {
				return fmt.Errorf("create app: %w", err)
			}
			defer func() { _ = app.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := app.Replay.Run(ctx, app.Sources(), appservice.ReplayParams{
				Source: sourceID,
				MinAge: minAge,
				Limit:  limit,
			})
			if err != nil {
				return fmt.Errorf("replay: %w", err)
			}

			cmd.Printf("attempted=%d recovered=%d still_failing=%d\n",
				summary.Attempted(), summary.Recovered(), summary.StillFailing())
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env)")
	cmd.Flags().StringVar(&dbURL, "db-url", "", "Database URL (overrides DB_URL)")
	cmd.Flags().StringVar(&sourceID, "source", "", "Restrict replay to one source id")
	cmd.Flags().DurationVar(&minAge, "min-age", 0, "Minimum quarantine record age (default: REPLAY_MIN_AGE_SECONDS)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum records to retry (default: REPLAY_LIMIT)")

	return cmd
}
