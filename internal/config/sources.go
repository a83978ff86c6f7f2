package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smoketheglobe/license-etl/domain/license"
	"github.com/smoketheglobe/license-etl/domain/source"
)

// sourceEntry is the YAML shape of one configured source.
type sourceEntry struct {
	ID             string            `yaml:"id"`
	Jurisdiction   string            `yaml:"jurisdiction"`
	Endpoint       string            `yaml:"endpoint"`
	SourceType     string            `yaml:"source_type"`
	Path           string            `yaml:"path"`
	Issuer         string            `yaml:"issuer"`
	RegionHint     string            `yaml:"region_hint"`
	FieldMapping   map[string]string `yaml:"field_mapping"`
	RegionDefaults map[string]string `yaml:"region_defaults"`
	SourceSystem   string            `yaml:"source_system"`
	MaxPages       int               `yaml:"max_pages"`
	Enabled        bool              `yaml:"enabled"`
}

// LoadSources reads the YAML source list at path and returns the configured
// sources. Per-source enable flags can be overridden from the environment
// with ETL_ENABLE_<ID> (dashes become underscores): "0" or "false" disables
// a source, anything else enables it.
func LoadSources(path string) ([]source.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return ParseSources(data)
}

// ParseSources parses a YAML source list.
func ParseSources(data []byte) ([]source.Config, error) {
	var entries []sourceEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}

	configs := make([]source.Config, 0, len(entries))
	for i, entry := range entries {
		cfg, err := entry.toConfig()
		if err != nil {
			return nil, fmt.Errorf("source %d (%s): %w", i, entry.ID, err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func (e sourceEntry) toConfig() (source.Config, error) {
	if e.ID == "" {
		return source.Config{}, fmt.Errorf("missing id")
	}
	if e.Endpoint == "" {
		return source.Config{}, fmt.Errorf("missing endpoint")
	}

	sourceType := source.Type(e.SourceType)
	if !sourceType.Valid() {
		return source.Config{}, fmt.Errorf("unknown source_type %q", e.SourceType)
	}

	path := source.Path(e.Path)
	switch path {
	case source.PathExtraction, source.PathDirect:
	case "":
		// Feeds without an issuer are direct by default; everything else
		// goes through extraction.
		if e.Issuer == "" {
			path = source.PathDirect
		} else {
			path = source.PathExtraction
		}
	default:
		return source.Config{}, fmt.Errorf("unknown path %q", e.Path)
	}

	cfg := source.NewConfig(e.ID, e.Jurisdiction, e.Endpoint, sourceType, path).
		WithFieldMapping(e.FieldMapping).
		WithRegionDefaults(e.RegionDefaults).
		WithSourceSystem(e.SourceSystem).
		WithMaxPages(e.MaxPages).
		WithEnabled(enabledFor(e.ID, e.Enabled))

	if path == source.PathExtraction {
		issuer := license.Issuer(e.Issuer)
		if !issuer.Valid() {
			return source.Config{}, fmt.Errorf("unknown issuer %q", e.Issuer)
		}
		cfg = cfg.WithIssuer(issuer, e.RegionHint)
	}

	return cfg, nil
}

// enabledFor applies the ETL_ENABLE_<ID> environment override.
func enabledFor(id string, fromFile bool) bool {
	key := "ETL_ENABLE_" + strings.ToUpper(strings.ReplaceAll(id, "-", "_"))
	val, ok := os.LookupEnv(key)
	if !ok {
		return fromFile
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "0", "false", "no":
		return false
	}
	return true
}
