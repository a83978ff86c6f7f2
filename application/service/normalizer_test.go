package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smoketheglobe/license-etl/domain/license"
	"github.com/smoketheglobe/license-etl/domain/service"
	"github.com/smoketheglobe/license-etl/domain/source"
)

func TestNormalizer_TextUnitValidCandidates(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)

	ex := &fakeExtractor{fn: func(_ string, issuer license.Issuer) ([]map[string]any, string, error) {
		return []map[string]any{
			{"license_number": "CA-1", "issuer": issuer.String(), "legal_name": "One LLC"},
			{"license_number": "CA-2", "issuer": issuer.String(), "status": "active"},
		}, `[...]`, nil
	}}
	n := NewNormalizer(ex, s.quarantine, nil)

	cfg := extractionConfig("ca_dcc", license.IssuerCaliforniaDCC)
	out := n.NormalizeUnit(ctx, cfg, source.NewTextUnit("https://example.test/page", "# page"))

	require.Len(t, out.Entities, 2)
	assert.Zero(t, out.Quarantined)
	assert.Zero(t, out.Skipped)
	assert.Equal(t, "CA-1", out.Entities[0].LicenseNumber())
	assert.Equal(t, license.IssuerCaliforniaDCC, out.Entities[0].Issuer())
}

func TestNormalizer_InvalidCandidateIsolated(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)

	// Three candidates, the middle one missing its license number.
	ex := &fakeExtractor{fn: func(_ string, _ license.Issuer) ([]map[string]any, string, error) {
		return []map[string]any{
			{"license_number": "CA-1"},
			{"legal_name": "No Number LLC"},
			{"license_number": "CA-3"},
		}, "", nil
	}}
	n := NewNormalizer(ex, s.quarantine, nil)

	cfg := extractionConfig("ca_dcc", license.IssuerCaliforniaDCC)
	out := n.NormalizeUnit(ctx, cfg, source.NewTextUnit("u", "text"))

	assert.Len(t, out.Entities, 2, "siblings of a bad candidate survive")
	assert.Equal(t, 1, out.Quarantined)

	quarantined, err := s.quarantine.List(ctx)
	require.NoError(t, err)
	require.Len(t, quarantined, 1)
	assert.Equal(t, "ca_dcc", quarantined[0].Source())
	assert.Contains(t, quarantined[0].RawContent(), "No Number LLC")
	assert.Equal(t, "license_number", quarantined[0].ErrorDetails()["field"])
}

func TestNormalizer_NoExtractorQuarantinesTextUnit(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)

	n := NewNormalizer(nil, s.quarantine, nil)
	cfg := extractionConfig("ca_dcc", license.IssuerCaliforniaDCC)

	out := n.NormalizeUnit(ctx, cfg, source.NewTextUnit("https://example.test/page", "# page"))

	assert.Empty(t, out.Entities)
	assert.Equal(t, 1, out.Quarantined)

	quarantined, err := s.quarantine.List(ctx)
	require.NoError(t, err)
	require.Len(t, quarantined, 1)
	assert.Equal(t, service.ErrNoExtractor.Error(), quarantined[0].ErrorMessage())
	assert.Equal(t, "# page", quarantined[0].RawContent(), "the input survives for a later replay")
}

func TestNormalizer_ExtractionFailureQuarantinesUnit(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)

	ex := &fakeExtractor{fn: func(_ string, _ license.Issuer) ([]map[string]any, string, error) {
		return nil, "Sure, here you go!", &service.ExtractionError{
			Message:     "model returned invalid JSON",
			RawResponse: "Sure, here you go!",
			Details:     "invalid character 'S'",
		}
	}}
	n := NewNormalizer(ex, s.quarantine, nil)

	cfg := extractionConfig("de_club", license.IssuerGermanyClub)
	out := n.NormalizeUnit(ctx, cfg, source.NewTextUnit("https://example.test/de", "club page"))

	assert.Empty(t, out.Entities)
	assert.Equal(t, 1, out.Quarantined)

	quarantined, err := s.quarantine.List(ctx)
	require.NoError(t, err)
	require.Len(t, quarantined, 1)
	assert.Equal(t, "club page", quarantined[0].RawContent(), "original input preserved for replay")
	assert.Equal(t, "Sure, here you go!", quarantined[0].ErrorDetails()["raw_response"])
	assert.NotEmpty(t, quarantined[0].ErrorDetails()["id"])
}

func TestNormalizer_RowDirectMapping(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)

	ex := &fakeExtractor{fn: func(_ string, _ license.Issuer) ([]map[string]any, string, error) {
		t.Fatal("a cleanly mapped row must not reach the extractor")
		return nil, "", nil
	}}
	n := NewNormalizer(ex, s.quarantine, nil)

	cfg := source.NewConfig("wa_lcb", "US-WA", "https://example.test/wa.csv", source.TypeCSV, source.PathExtraction).
		WithIssuer(license.IssuerWashingtonLCB, "Washington State")

	row := map[string]string{
		"LicenseNumber": "WA-1234",
		"BusinessName":  "Acme Dispensary LLC",
		"DBAName":       "Acme",
		"LicenseType":   "retail",
		"LicenseStatus": "active",
		"Address1":      "123 Pine St",
		"City":          "Seattle",
		"ZipCode":       "98101",
		"County":        "King",
		"PremiseType":   "storefront",
	}
	out := n.NormalizeUnit(ctx, cfg, source.NewRowUnit("https://example.test/wa.csv", row))

	require.Len(t, out.Entities, 1)
	e := out.Entities[0]
	assert.Equal(t, "WA-1234", e.LicenseNumber())
	assert.Equal(t, license.IssuerWashingtonLCB, e.Issuer())
	assert.Equal(t, "Acme Dispensary LLC", e.LegalName())
	assert.Equal(t, "Acme", e.DBAName())
	assert.Equal(t, "WA", e.Address().Region(), "region falls back to the jurisdiction state")
	assert.Equal(t, "US", e.Address().Country())

	county, ok := e.RegionConfig().Get("county")
	require.True(t, ok)
	assert.Equal(t, "King", county)
}

func TestNormalizer_RowWithoutLicenseNumberSkipped(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)

	ex := &fakeExtractor{fn: func(_ string, _ license.Issuer) ([]map[string]any, string, error) {
		return nil, "", errors.New("unused")
	}}
	n := NewNormalizer(ex, s.quarantine, nil)

	cfg := source.NewConfig("wa_lcb", "US-WA", "e", source.TypeCSV, source.PathExtraction).
		WithIssuer(license.IssuerWashingtonLCB, "")

	out := n.NormalizeUnit(ctx, cfg, source.NewRowUnit("e", map[string]string{"BusinessName": "Header Junk"}))

	assert.Empty(t, out.Entities)
	assert.Equal(t, 1, out.Skipped)
	assert.Zero(t, out.Quarantined, "feed noise is skipped, not quarantined")
	assert.Zero(t, ex.calls)
}

func TestNormalizer_DirectPathRecord(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)
	n := NewNormalizer(nil, s.quarantine, nil)

	cfg := source.NewConfig("ok_omma", "US-OK", "https://example.test/ok.json", source.TypeJSON, source.PathDirect).
		WithFieldMapping(map[string]string{
			"license_number": "license_no",
			"entity_name":    "business",
			"status":         "license_status",
			"city":           "city",
		}).
		WithSourceSystem("OMMA")

	row := map[string]string{
		"license_no":     "OK-42",
		"business":       "Sooner Wellness",
		"license_status": "active",
		"city":           "Tulsa",
	}
	out := n.NormalizeUnit(ctx, cfg, source.NewRowUnit("https://example.test/ok.json", row))

	require.Len(t, out.Records, 1)
	r := out.Records[0]
	assert.Equal(t, "OK", r.StateCode())
	assert.Equal(t, "OK-42", r.LicenseNumber())
	assert.Equal(t, "Sooner Wellness", r.EntityName())
	assert.Equal(t, "unknown", r.LicenseType(), "unmapped fields take the default")
	assert.Equal(t, "US", r.CountryCode())
	assert.Equal(t, "OMMA", r.SourceSystem())
	assert.Equal(t, "OK-42", r.RawData()["license_no"], "raw row kept for provenance")
}

func TestNormalizer_RegionDefaultsStamped(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)

	ex := &fakeExtractor{fn: func(_ string, _ license.Issuer) ([]map[string]any, string, error) {
		return []map[string]any{
			{"license_number": "DE-1"},
			{"license_number": "DE-2", "region_config": map[string]any{"verification_status": "verified"}},
		}, "", nil
	}}
	n := NewNormalizer(ex, s.quarantine, nil)

	cfg := extractionConfig("de_club", license.IssuerGermanyClub).
		WithRegionDefaults(map[string]string{"verification_status": "unverified_lead"})

	out := n.NormalizeUnit(ctx, cfg, source.NewTextUnit("u", "text"))
	require.Len(t, out.Entities, 2)

	v1, _ := out.Entities[0].RegionConfig().Get("verification_status")
	assert.Equal(t, "unverified_lead", v1, "default applied when absent")

	v2, _ := out.Entities[1].RegionConfig().Get("verification_status")
	assert.Equal(t, "verified", v2, "extraction value wins over the default")
}
