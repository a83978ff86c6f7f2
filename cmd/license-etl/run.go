package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	licenseetl "github.com/smoketheglobe/license-etl"
	"github.com/smoketheglobe/license-etl/domain/etl"
)

func runCmd() *cobra.Command {
	var (
		envFile     string
		dbURL       string
		sourcesFile string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one ETL pass over the configured sources",
		Long: `Execute one ETL pass: fetch every enabled source, normalize the
fetched units into canonical license records, and upsert them. When
self-healing is enabled the pass ends with a replay of eligible
quarantine records.

Sources are read from the YAML file named by SOURCES_FILE (default
sources.yml). The run always completes; per-source failures are
reported in the summary and the command exits non-zero when any
source failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			if dbURL != "" {
				cfg = cfg.WithDBURL(dbURL)
			}
			if sourcesFile != "" {
				cfg = cfg.WithSourcesFile(sourcesFile)
			}

			app, err := licenseetl.New(licenseetl.WithConfig(cfg))
			if err != nil {
				return fmt.Errorf("create app: %w", err)
			}
			defer func() { _ = app.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := app.Run(ctx)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}

			printRunSummary(cmd, summary)
			if !summary.Ok() {
				return fmt.Errorf("%d of %d sources failed", failedCount(summary), summary.Len())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env)")
	cmd.Flags().StringVar(&dbURL, "db-url", "", "Database URL (overrides DB_URL)")
	cmd.Flags().StringVar(&sourcesFile, "sources", "", "Path to the YAML source list (overrides SOURCES_FILE)")

	return cmd
}

func printRunSummary(cmd *cobra.Command, summary etl.RunSummary) {
	for _, result := range summary.Results() {
		line := fmt.Sprintf("%-20s %-8s loaded=%d skipped=%d quarantined=%d fetch_failures=%d",
			result.SourceID(), result.State(), result.Count(), result.Skipped(),
			result.Quarantined(), result.FetchFailures())
		if err := result.Err(); err != nil {
			line += fmt.Sprintf(" error=%q", err)
		}
		cmd.Println(line)
	}
	cmd.Printf("total loaded: %d\n", summary.TotalCount())
}

func failedCount(summary etl.RunSummary) int {
	failed := 0
	for _, result := range summary.Results() {
		if !result.Ok() {
			failed++
		}
	}
	return failed
}
