package licenseetl

import (
	"log/slog"

	"github.com/smoketheglobe/license-etl/domain/service"
	"github.com/smoketheglobe/license-etl/domain/source"
	"github.com/smoketheglobe/license-etl/infrastructure/provider"
	"github.com/smoketheglobe/license-etl/internal/config"
)

// appOptions holds configuration for App construction. Use newAppOptions()
// to create with defaults from internal/config.
type appOptions struct {
	cfg        config.AppConfig
	sources    []source.Config
	sourcesSet bool
	generator  provider.TextGenerator
	renderer   service.Renderer
	logger     *slog.Logger
}

func newAppOptions() *appOptions {
	return &appOptions{cfg: config.NewAppConfig()}
}

// Option configures the App.
type Option func(*appOptions)

// WithConfig replaces the whole application configuration.
func WithConfig(cfg config.AppConfig) Option {
	return func(o *appOptions) { o.cfg = cfg }
}

// WithDatabaseURL sets the database connection URL.
func WithDatabaseURL(url string) Option {
	return func(o *appOptions) { o.cfg = o.cfg.WithDBURL(url) }
}

// WithSourcesFile sets the path of the YAML source list.
func WithSourcesFile(path string) Option {
	return func(o *appOptions) { o.cfg = o.cfg.WithSourcesFile(path) }
}

// WithSources supplies source configs directly, bypassing the sources file.
func WithSources(sources []source.Config) Option {
	return func(o *appOptions) {
		o.sources = sources
		o.sourcesSet = true
	}
}

// WithTextGenerator supplies the model client used for extraction,
// overriding the configured endpoint.
func WithTextGenerator(generator provider.TextGenerator) Option {
	return func(o *appOptions) { o.generator = generator }
}

// WithRenderer supplies the page renderer, overriding the plain HTTP one.
func WithRenderer(renderer service.Renderer) Option {
	return func(o *appOptions) { o.renderer = renderer }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *appOptions) { o.logger = logger }
}
