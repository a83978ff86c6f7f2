package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration. Variables use no
// prefix so deployments keep the same names the original service used.
type EnvConfig struct {
	// Host is the admin server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the admin server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DBURL is the database connection URL.
	// Env: DB_URL (e.g. sqlite:///etl.db, postgres://...)
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// SourcesFile is the path to the YAML source list.
	// Env: SOURCES_FILE (default: sources.yml)
	SourcesFile string `envconfig:"SOURCES_FILE" default:"sources.yml"`

	// FetchTimeoutSeconds bounds every source fetch request.
	// Env: FETCH_TIMEOUT_SECONDS (default: 30)
	FetchTimeoutSeconds float64 `envconfig:"FETCH_TIMEOUT_SECONDS" default:"30"`

	// SelfHealEnabled controls whether a run ends with a replay pass.
	// Env: SELF_HEAL_ENABLED (default: true)
	SelfHealEnabled bool `envconfig:"SELF_HEAL_ENABLED" default:"true"`

	// ReplayMinAgeSeconds is the minimum quarantine record age for replay.
	// Env: REPLAY_MIN_AGE_SECONDS (default: 3600)
	ReplayMinAgeSeconds float64 `envconfig:"REPLAY_MIN_AGE_SECONDS" default:"3600"`

	// ReplayLimit is the maximum quarantine records per replay pass.
	// Env: REPLAY_LIMIT (default: 100)
	ReplayLimit int `envconfig:"REPLAY_LIMIT" default:"100"`

	// Extraction configures the extraction AI endpoint.
	Extraction EndpointEnv `envconfig:"EXTRACTION"`
}

// EndpointEnv holds environment configuration for the extraction endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: EXTRACTION_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier.
	// Env: EXTRACTION_MODEL (default: gpt-4o-mini)
	Model string `envconfig:"MODEL" default:"gpt-4o-mini"`

	// APIKey is the API key for authentication.
	// Env: EXTRACTION_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: EXTRACTION_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: EXTRACTION_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: EXTRACTION_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: EXTRACTION_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg.host = e.Host
	}
	if e.Port != 0 {
		cfg.port = e.Port
	}
	cfg.dbURL = e.DBURL
	if e.LogLevel != "" {
		cfg.logLevel = e.LogLevel
	}
	if e.LogFormat != "" {
		cfg.logFormat = LogFormat(e.LogFormat)
	}
	if e.SourcesFile != "" {
		cfg.sourcesFile = e.SourcesFile
	}
	if e.FetchTimeoutSeconds > 0 {
		cfg.fetchTimeout = secondsToDuration(e.FetchTimeoutSeconds)
	}
	cfg.selfHealEnabled = e.SelfHealEnabled
	if e.ReplayMinAgeSeconds > 0 {
		cfg.replayMinAge = secondsToDuration(e.ReplayMinAgeSeconds)
	}
	if e.ReplayLimit > 0 {
		cfg.replayLimit = e.ReplayLimit
	}

	endpoint := NewEndpoint()
	endpoint.baseURL = e.Extraction.BaseURL
	if e.Extraction.Model != "" {
		endpoint.model = e.Extraction.Model
	}
	endpoint.apiKey = e.Extraction.APIKey
	if e.Extraction.Timeout > 0 {
		endpoint.timeout = secondsToDuration(e.Extraction.Timeout)
	}
	if e.Extraction.MaxRetries > 0 {
		endpoint.maxRetries = e.Extraction.MaxRetries
	}
	if e.Extraction.InitialDelay > 0 {
		endpoint.initialDelay = secondsToDuration(e.Extraction.InitialDelay)
	}
	if e.Extraction.BackoffFactor > 0 {
		endpoint.backoffFactor = e.Extraction.BackoffFactor
	}
	cfg.extraction = endpoint

	return cfg
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
