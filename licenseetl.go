// Package licenseetl ingests regulatory license data from configured
// sources, normalizes it into canonical records, and persists it
// idempotently, with a quarantine-and-replay loop for inputs that fail
// normalization.
//
// Basic usage:
//
//	app, err := licenseetl.New(
//	    licenseetl.WithDatabaseURL("sqlite:///licenses.db"),
//	    licenseetl.WithSourcesFile("sources.yml"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Close()
//
//	summary, err := app.Run(ctx)
//	for _, result := range summary.Results() {
//	    fmt.Println(result.SourceID(), result.State(), result.Count())
//	}
package licenseetl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	appservice "github.com/smoketheglobe/license-etl/application/service"
	"github.com/smoketheglobe/license-etl/domain/etl"
	"github.com/smoketheglobe/license-etl/domain/license"
	domainservice "github.com/smoketheglobe/license-etl/domain/service"
	"github.com/smoketheglobe/license-etl/domain/source"
	"github.com/smoketheglobe/license-etl/infrastructure/adapter"
	"github.com/smoketheglobe/license-etl/infrastructure/extractor"
	"github.com/smoketheglobe/license-etl/infrastructure/persistence"
	"github.com/smoketheglobe/license-etl/infrastructure/provider"
	"github.com/smoketheglobe/license-etl/internal/config"
	"github.com/smoketheglobe/license-etl/internal/database"
	"github.com/smoketheglobe/license-etl/internal/log"
)

// ErrNoDatabase indicates no database URL was configured.
var ErrNoDatabase = errors.New("no database configured")

// ErrNoExtractionEndpoint indicates an extraction-path source is enabled but
// no model endpoint or generator was configured.
var ErrNoExtractionEndpoint = errors.New("extraction source enabled but no extraction endpoint configured")

// App is the main entry point for the license ETL.
type App struct {
	Pipeline *appservice.Pipeline
	Replay   *appservice.Replay

	Licenses      license.Store
	StateLicenses license.StateStore
	Quarantine    license.QuarantineStore

	db      database.Database
	cfg     config.AppConfig
	sources []source.Config
	logger  *log.Logger
	closed  atomic.Bool
}

// New creates an App with the given options.
func New(opts ...Option) (*App, error) {
	o := newAppOptions()
	for _, opt := range opts {
		opt(o)
	}
	cfg := o.cfg

	if cfg.DBURL() == "" {
		return nil, ErrNoDatabase
	}

	logger := log.NewLogger(cfg)
	if o.logger != nil {
		logger = log.WrapSlog(o.logger)
	}
	slogger := logger.Slog()

	sources := o.sources
	if !o.sourcesSet {
		loaded, err := config.LoadSources(cfg.SourcesFile())
		if err != nil {
			return nil, err
		}
		sources = loaded
	}

	generator := o.generator
	if generator == nil && cfg.Extraction().Configured() {
		ep := cfg.Extraction()
		generator = provider.NewOpenAIProviderFromConfig(provider.OpenAIConfig{
			APIKey:        ep.APIKey(),
			BaseURL:       ep.BaseURL(),
			ChatModel:     ep.Model(),
			Timeout:       ep.Timeout(),
			MaxRetries:    ep.MaxRetries(),
			InitialDelay:  ep.InitialDelay(),
			BackoffFactor: ep.BackoffFactor(),
		})
	}
	if generator == nil && needsExtraction(sources) {
		return nil, ErrNoExtractionEndpoint
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, cfg.DBURL())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.ConfigurePool(cfg.PoolMaxOpen(), cfg.PoolMaxIdle(), cfg.PoolMaxLifetime()); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	if err := persistence.AutoMigrate(ctx, db); err != nil {
		return nil, errors.Join(err, db.Close())
	}

	licStore := persistence.NewLicenseStore(db)
	stateStore := persistence.NewStateLicenseStore(db)
	quarantineStore := persistence.NewQuarantineStore(db)

	httpClient := &http.Client{Timeout: cfg.FetchTimeout()}
	renderer := o.renderer
	if renderer == nil {
		renderer = adapter.NewHTTPRenderer(httpClient)
	}

	adapters := map[source.Type]source.Adapter{
		source.TypePage: adapter.NewPageAdapter(renderer),
		source.TypeCSV:  adapter.NewCSVAdapter(httpClient),
		source.TypeJSON: adapter.NewJSONAdapter(httpClient),
	}

	var licExtractor domainservice.Extractor
	if generator != nil {
		licExtractor = extractor.NewLicenseExtractor(generator, slogger)
	}

	normalizer := appservice.NewNormalizer(licExtractor, quarantineStore, slogger)
	pipeline := appservice.NewPipeline(adapters, normalizer, licStore, stateStore, slogger)
	replay := appservice.NewReplay(quarantineStore, licExtractor, licStore, slogger)

	return &App{
		Pipeline:      pipeline,
		Replay:        replay,
		Licenses:      licStore,
		StateLicenses: stateStore,
		Quarantine:    quarantineStore,
		db:            db,
		cfg:           cfg,
		sources:       sources,
		logger:        logger,
	}, nil
}

// Run executes one ETL pass over the configured sources, followed by a
// replay pass when self-healing is enabled.
func (a *App) Run(ctx context.Context) (etl.RunSummary, error) {
	summary, err := a.Pipeline.Run(ctx, a.sources)
	if err != nil {
		return etl.RunSummary{}, err
	}

	if a.cfg.SelfHealEnabled() {
		if _, err := a.SelfHeal(ctx); err != nil {
			a.logger.Warn("self-heal pass failed", "error", err)
		}
	}
	return summary, nil
}

// SelfHeal executes one replay pass with the configured age and size limits.
func (a *App) SelfHeal(ctx context.Context) (etl.ReplaySummary, error) {
	return a.Replay.Run(ctx, a.sources, appservice.ReplayParams{
		MinAge: a.cfg.ReplayMinAge(),
		Limit:  a.cfg.ReplayLimit(),
	})
}

// Sources returns the configured sources.
func (a *App) Sources() []source.Config {
	out := make([]source.Config, len(a.sources))
	copy(out, a.sources)
	return out
}

// Config returns the application configuration.
func (a *App) Config() config.AppConfig { return a.cfg }

// Logger returns the application logger.
func (a *App) Logger() *log.Logger { return a.logger }

// Close releases the database connection. Safe to call more than once.
func (a *App) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	return a.db.Close()
}

// needsExtraction reports whether any enabled source requires the extraction
// collaborator.
func needsExtraction(sources []source.Config) bool {
	for _, cfg := range sources {
		if cfg.Enabled() && cfg.PersistencePath() == source.PathExtraction {
			return true
		}
	}
	return false
}
