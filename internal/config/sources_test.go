package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smoketheglobe/license-etl/domain/license"
	"github.com/smoketheglobe/license-etl/domain/source"
)

func TestParseSources_ExtractionSource(t *testing.T) {
	data := []byte(`
- id: wa_lcb
  jurisdiction: US-WA
  endpoint: https://example.test/licensees.csv
  source_type: csv
  issuer: WA-LCB
  region_hint: Washington State
  enabled: true
`)

	configs, err := ParseSources(data)
	require.NoError(t, err)
	require.Len(t, configs, 1)

	cfg := configs[0]
	assert.Equal(t, "wa_lcb", cfg.ID())
	assert.Equal(t, source.TypeCSV, cfg.SourceType())
	assert.Equal(t, source.PathExtraction, cfg.PersistencePath(), "issuer implies extraction path")
	assert.Equal(t, license.IssuerWashingtonLCB, cfg.Issuer())
	assert.Equal(t, "Washington State", cfg.RegionHint())
	assert.Equal(t, "WA", cfg.StateCode())
	assert.True(t, cfg.Enabled())
}

func TestParseSources_DirectSourceByDefault(t *testing.T) {
	data := []byte(`
- id: ok_omma
  jurisdiction: US-OK
  endpoint: https://example.test/api
  source_type: open_data_api
  source_system: omma
  field_mapping:
    license_number: licenseNumber
    entity_name: legalName
  enabled: true
`)

	configs, err := ParseSources(data)
	require.NoError(t, err)
	require.Len(t, configs, 1)

	cfg := configs[0]
	assert.Equal(t, source.PathDirect, cfg.PersistencePath(), "no issuer implies direct path")
	assert.Equal(t, "omma", cfg.SourceSystem())
	assert.Equal(t, "licenseNumber", cfg.MappedColumn("license_number"))
}

func TestParseSources_RegionDefaults(t *testing.T) {
	data := []byte(`
- id: de_club
  jurisdiction: DE
  endpoint: https://example.test/vereine
  source_type: page
  issuer: DE-CLUB
  region_defaults:
    verification_status: unverified_lead
  enabled: true
`)

	configs, err := ParseSources(data)
	require.NoError(t, err)
	assert.Equal(t, "unverified_lead", configs[0].RegionDefaults()["verification_status"])
}

func TestParseSources_RejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"missing id": `
- endpoint: https://example.test
  source_type: page
  issuer: CA-DCC
`,
		"missing endpoint": `
- id: ca_dcc
  source_type: page
  issuer: CA-DCC
`,
		"unknown source type": `
- id: ca_dcc
  endpoint: https://example.test
  source_type: carrier_pigeon
  issuer: CA-DCC
`,
		"unknown issuer on extraction path": `
- id: ca_dcc
  endpoint: https://example.test
  source_type: page
  path: extraction
  issuer: CA-NOPE
`,
		"unknown path": `
- id: ca_dcc
  endpoint: https://example.test
  source_type: page
  path: sideways
  issuer: CA-DCC
`,
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSources([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestParseSources_EnableOverrideFromEnv(t *testing.T) {
	data := []byte(`
- id: ca_dcc
  jurisdiction: US-CA
  endpoint: https://example.test
  source_type: page
  issuer: CA-DCC
  enabled: true
- id: th_plook
  jurisdiction: TH
  endpoint: https://example.test
  source_type: page
  issuer: TH-PLOOK
  enabled: false
`)

	t.Setenv("ETL_ENABLE_CA_DCC", "0")
	t.Setenv("ETL_ENABLE_TH_PLOOK", "true")

	configs, err := ParseSources(data)
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.False(t, configs[0].Enabled())
	assert.True(t, configs[1].Enabled())
}
