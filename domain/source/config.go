// Package source describes configured ingestion sources and the adapter
// contract for fetching their raw content.
package source

import (
	"strings"

	"github.com/smoketheglobe/license-etl/domain/license"
)

// Type identifies how a source's raw content is retrieved.
type Type string

// Source types.
const (
	// TypePage is a rendered web page consumed as Markdown blocks.
	TypePage Type = "page"
	// TypeCSV is a CSV download consumed as header-mapped rows.
	TypeCSV Type = "csv"
	// TypeJSON is an open-data JSON API consumed as object rows.
	TypeJSON Type = "open_data_api"
)

// Valid reports whether the type is known.
func (t Type) Valid() bool {
	switch t {
	case TypePage, TypeCSV, TypeJSON:
		return true
	}
	return false
}

// Path selects which persistence path a source's records take.
type Path string

// Persistence paths.
const (
	// PathExtraction writes license entities keyed by (issuer, license_number).
	// Rows that cannot be mapped directly go through the LLM extractor.
	PathExtraction Path = "extraction"
	// PathDirect writes state records keyed by (state_code, license_number)
	// with no extraction fallback.
	PathDirect Path = "direct"
)

// Config describes one configured source. It is read-only input to the
// pipeline: adapters and the normalizer never mutate it.
type Config struct {
	id             string
	jurisdiction   string
	endpoint       string
	sourceType     Type
	path           Path
	issuer         license.Issuer
	regionHint     string
	fieldMapping   map[string]string
	regionDefaults map[string]string
	sourceSystem   string
	maxPages       int
	enabled        bool
}

// NewConfig creates a Config.
func NewConfig(id, jurisdiction, endpoint string, sourceType Type, path Path) Config {
	return Config{
		id:           id,
		jurisdiction: jurisdiction,
		endpoint:     endpoint,
		sourceType:   sourceType,
		path:         path,
		enabled:      true,
		maxPages:     1,
	}
}

// ID returns the source id.
func (c Config) ID() string { return c.id }

// Jurisdiction returns the jurisdiction code (e.g. "US-OK").
func (c Config) Jurisdiction() string { return c.jurisdiction }

// Endpoint returns the fetch endpoint.
func (c Config) Endpoint() string { return c.endpoint }

// SourceType returns how raw content is retrieved.
func (c Config) SourceType() Type { return c.sourceType }

// PersistencePath returns which store the source's records target.
func (c Config) PersistencePath() Path { return c.path }

// Issuer returns the issuer stamped on every record from this source
// (extraction path only).
func (c Config) Issuer() license.Issuer { return c.issuer }

// RegionHint returns the free-text hint passed to the extractor.
func (c Config) RegionHint() string { return c.regionHint }

// FieldMapping returns a copy of the canonical-field -> feed-column mapping.
func (c Config) FieldMapping() map[string]string {
	out := make(map[string]string, len(c.fieldMapping))
	for k, v := range c.fieldMapping {
		out[k] = v
	}
	return out
}

// MappedColumn returns the feed column for a canonical field, or empty.
func (c Config) MappedColumn(field string) string {
	return c.fieldMapping[field]
}

// RegionDefaults returns a copy of region-config entries stamped onto every
// entity the source produces, unless the extraction already set the key.
func (c Config) RegionDefaults() map[string]string {
	out := make(map[string]string, len(c.regionDefaults))
	for k, v := range c.regionDefaults {
		out[k] = v
	}
	return out
}

// SourceSystem returns the upstream system name, for provenance.
func (c Config) SourceSystem() string { return c.sourceSystem }

// MaxPages returns how many pages a paginated page source fetches.
func (c Config) MaxPages() int { return c.maxPages }

// Enabled reports whether the source participates in runs.
func (c Config) Enabled() bool { return c.enabled }

// StateCode derives the state code from the jurisdiction ("US-OK" -> "OK").
func (c Config) StateCode() string {
	if idx := strings.LastIndex(c.jurisdiction, "-"); idx >= 0 {
		return c.jurisdiction[idx+1:]
	}
	return c.jurisdiction
}

// WithIssuer returns a copy with the issuer and region hint set.
func (c Config) WithIssuer(issuer license.Issuer, regionHint string) Config {
	c.issuer = issuer
	c.regionHint = regionHint
	return c
}

// WithFieldMapping returns a copy with the field mapping set.
func (c Config) WithFieldMapping(mapping map[string]string) Config {
	m := make(map[string]string, len(mapping))
	for k, v := range mapping {
		m[k] = v
	}
	c.fieldMapping = m
	return c
}

// WithRegionDefaults returns a copy with the region-config defaults set.
func (c Config) WithRegionDefaults(defaults map[string]string) Config {
	m := make(map[string]string, len(defaults))
	for k, v := range defaults {
		m[k] = v
	}
	c.regionDefaults = m
	return c
}

// WithSourceSystem returns a copy with the source system set.
func (c Config) WithSourceSystem(system string) Config {
	c.sourceSystem = system
	return c
}

// WithMaxPages returns a copy with the page count set.
func (c Config) WithMaxPages(n int) Config {
	if n > 0 {
		c.maxPages = n
	}
	return c
}

// WithEnabled returns a copy with the enabled flag set.
func (c Config) WithEnabled(enabled bool) Config {
	c.enabled = enabled
	return c
}
