// Package config provides application configuration.
package config

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	DefaultHost                 = "0.0.0.0"
	DefaultPort                 = 8080
	DefaultLogLevel             = "INFO"
	DefaultSourcesFile          = "sources.yml"
	DefaultFetchTimeout         = 30 * time.Second
	DefaultReplayMinAge         = time.Hour
	DefaultReplayLimit          = 100
	DefaultExtractionModel      = "gpt-4o-mini"
	DefaultExtractionTimeout    = 60 * time.Second
	DefaultExtractionMaxRetries = 5
	DefaultExtractionDelay      = 2 * time.Second
	DefaultExtractionBackoff    = 2.0
	DefaultPoolMaxOpen          = 10
	DefaultPoolMaxIdle          = 5
	DefaultPoolMaxLifetime      = 30 * time.Minute
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures the extraction AI service.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewEndpoint creates an Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		model:         DefaultExtractionModel,
		timeout:       DefaultExtractionTimeout,
		maxRetries:    DefaultExtractionMaxRetries,
		initialDelay:  DefaultExtractionDelay,
		backoffFactor: DefaultExtractionBackoff,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// Configured reports whether the endpoint has an API key.
func (e Endpoint) Configured() bool { return e.apiKey != "" }

// AppConfig holds the full application configuration.
type AppConfig struct {
	host        string
	port        int
	dbURL       string
	logLevel    string
	logFormat   LogFormat
	sourcesFile string

	fetchTimeout time.Duration

	selfHealEnabled bool
	replayMinAge    time.Duration
	replayLimit     int

	extraction Endpoint

	poolMaxOpen     int
	poolMaxIdle     int
	poolMaxLifetime time.Duration
}

// NewAppConfig creates an AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		host:            DefaultHost,
		port:            DefaultPort,
		logLevel:        DefaultLogLevel,
		logFormat:       LogFormatPretty,
		sourcesFile:     DefaultSourcesFile,
		fetchTimeout:    DefaultFetchTimeout,
		selfHealEnabled: true,
		replayMinAge:    DefaultReplayMinAge,
		replayLimit:     DefaultReplayLimit,
		extraction:      NewEndpoint(),
		poolMaxOpen:     DefaultPoolMaxOpen,
		poolMaxIdle:     DefaultPoolMaxIdle,
		poolMaxLifetime: DefaultPoolMaxLifetime,
	}
}

// Host returns the server host.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port.
func (c AppConfig) Port() int { return c.port }

// Addr returns the host:port listen address.
func (c AppConfig) Addr() string { return fmt.Sprintf("%s:%d", c.host, c.port) }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log verbosity level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log output format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// SourcesFile returns the path to the YAML source list.
func (c AppConfig) SourcesFile() string { return c.sourcesFile }

// FetchTimeout returns the per-request timeout for source fetches.
func (c AppConfig) FetchTimeout() time.Duration { return c.fetchTimeout }

// SelfHealEnabled reports whether a run ends with a replay pass.
func (c AppConfig) SelfHealEnabled() bool { return c.selfHealEnabled }

// ReplayMinAge returns how old a quarantine record must be before replay
// retries it.
func (c AppConfig) ReplayMinAge() time.Duration { return c.replayMinAge }

// ReplayLimit returns the maximum quarantine records per replay pass.
func (c AppConfig) ReplayLimit() int { return c.replayLimit }

// Extraction returns the extraction endpoint configuration.
func (c AppConfig) Extraction() Endpoint { return c.extraction }

// PoolMaxOpen returns the maximum open database connections.
func (c AppConfig) PoolMaxOpen() int { return c.poolMaxOpen }

// PoolMaxIdle returns the maximum idle database connections.
func (c AppConfig) PoolMaxIdle() int { return c.poolMaxIdle }

// PoolMaxLifetime returns the maximum database connection lifetime.
func (c AppConfig) PoolMaxLifetime() time.Duration { return c.poolMaxLifetime }

// WithHost returns a copy with the host set.
func (c AppConfig) WithHost(host string) AppConfig {
	c.host = host
	return c
}

// WithPort returns a copy with the port set.
func (c AppConfig) WithPort(port int) AppConfig {
	c.port = port
	return c
}

// WithDBURL returns a copy with the database URL set.
func (c AppConfig) WithDBURL(url string) AppConfig {
	c.dbURL = url
	return c
}

// WithSourcesFile returns a copy with the sources file path set.
func (c AppConfig) WithSourcesFile(path string) AppConfig {
	c.sourcesFile = path
	return c
}
