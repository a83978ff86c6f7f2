// Package service wires domain logic into the application-level ETL
// services: normalization, the run orchestrator, and quarantine replay.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/smoketheglobe/license-etl/domain/license"
	"github.com/smoketheglobe/license-etl/domain/service"
	"github.com/smoketheglobe/license-etl/domain/source"
)

// waHeaderFallbacks maps canonical entity fields to the column names seen in
// regulator CSV exports, tried in order after the configured field mapping.
var waHeaderFallbacks = map[string][]string{
	license.FieldLicenseNumber: {"LicenseNumber", "license_number"},
	license.FieldLegalName:     {"BusinessName", "name"},
	license.FieldDBAName:       {"DBAName", "dba_name"},
	license.FieldLicenseType:   {"LicenseType", "license_type"},
	license.FieldStatus:        {"LicenseStatus", "status"},
	license.FieldAddressLine1:  {"Address1", "StreetAddress"},
	license.FieldAddressLine2:  {"Address2"},
	license.FieldCity:          {"City"},
	license.FieldRegion:        {"State"},
	license.FieldPostalCode:    {"ZipCode"},
}

// rowRegionConfigColumns are CSV columns carried into region_config when
// present on a directly mapped row.
var rowRegionConfigColumns = map[string]string{
	"county":       "County",
	"premise_type": "PremiseType",
}

// UnitOutcome is what normalizing one raw unit produced.
type UnitOutcome struct {
	Entities    []license.Entity
	Records     []license.StateRecord
	Skipped     int
	Quarantined int
}

// Normalizer turns raw units into canonical records. Validation failures are
// quarantined, never propagated; a quarantine write failure is logged and
// swallowed so diagnostics can never break ingestion.
type Normalizer struct {
	extractor  service.Extractor
	quarantine license.QuarantineStore
	logger     *slog.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(extractor service.Extractor, quarantine license.QuarantineStore, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		extractor:  extractor,
		quarantine: quarantine,
		logger:     logger,
	}
}

// NormalizeUnit dispatches a unit to the right path for its source.
func (n *Normalizer) NormalizeUnit(ctx context.Context, cfg source.Config, unit source.RawUnit) UnitOutcome {
	if cfg.PersistencePath() == source.PathDirect {
		return n.normalizeDirect(cfg, unit)
	}
	if unit.IsText() {
		return n.normalizeText(ctx, cfg, unit.URL(), unit.Text())
	}
	return n.normalizeRow(ctx, cfg, unit)
}

// normalizeText extracts candidates from a text block and validates each one
// independently: a malformed candidate is quarantined without touching its
// siblings.
func (n *Normalizer) normalizeText(ctx context.Context, cfg source.Config, url, text string) UnitOutcome {
	var out UnitOutcome

	if n.extractor == nil {
		n.quarantineInput(ctx, cfg.ID(), url, text, service.ErrNoExtractor)
		out.Quarantined++
		return out
	}

	candidates, _, err := n.extractor.Extract(ctx, text, cfg.Issuer(), cfg.RegionHint())
	if err != nil {
		n.quarantineInput(ctx, cfg.ID(), url, text, err)
		out.Quarantined++
		return out
	}

	for _, candidate := range candidates {
		entity, err := license.ValidateCandidate(candidate, cfg.Issuer())
		if err != nil {
			n.quarantineInput(ctx, cfg.ID(), url, candidateJSON(candidate), err)
			out.Quarantined++
			continue
		}
		out.Entities = append(out.Entities, applyRegionDefaults(cfg, entity))
	}
	return out
}

// normalizeRow maps a structured row straight onto the entity schema. Rows
// without a license number are feed noise and are skipped; rows that fail
// validation get one extraction attempt before quarantine.
func (n *Normalizer) normalizeRow(ctx context.Context, cfg source.Config, unit source.RawUnit) UnitOutcome {
	var out UnitOutcome
	row := unit.Row()

	number := rowValue(cfg, row, license.FieldLicenseNumber)
	if number == "" {
		n.logger.Warn("row without license number skipped", "source", cfg.ID())
		out.Skipped++
		return out
	}

	candidate := rowCandidate(cfg, row, number)
	entity, err := license.ValidateCandidate(candidate, cfg.Issuer())
	if err == nil {
		out.Entities = append(out.Entities, applyRegionDefaults(cfg, entity))
		return out
	}

	n.logger.Warn("direct row mapping failed, retrying via extraction",
		"source", cfg.ID(), "license_number", number, "error", err)

	text := rowAsMarkdown(row)
	extracted := n.normalizeText(ctx, cfg, rowUnitURL(cfg), text)
	out.Entities = append(out.Entities, extracted.Entities...)
	out.Quarantined += extracted.Quarantined
	return out
}

// normalizeDirect maps a structured row onto a state record using only the
// configured field mapping. There is no extraction fallback on this path.
func (n *Normalizer) normalizeDirect(cfg source.Config, unit source.RawUnit) UnitOutcome {
	var out UnitOutcome
	row := unit.Row()

	get := func(field string) string {
		col := cfg.MappedColumn(field)
		if col == "" {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	number := get("license_number")
	if number == "" {
		n.logger.Warn("feed row without license number skipped", "source", cfg.ID())
		out.Skipped++
		return out
	}

	stateCode := get("state_code")
	if stateCode == "" {
		stateCode = cfg.StateCode()
	}

	raw := make(map[string]any, len(row))
	for k, v := range row {
		raw[k] = v
	}

	record := license.NewStateRecord(stateCode, number).
		WithDetails(get("license_type"), get("status"), get("entity_name")).
		WithLocation(stateCode, get("city")).
		WithDates(get("issued_at"), get("expires_at")).
		WithProvenance(cfg.Endpoint(), cfg.SourceSystem(), raw)

	out.Records = append(out.Records, record)
	return out
}

// applyRegionDefaults stamps configured region_config defaults onto an
// entity without overriding values the extraction already set.
func applyRegionDefaults(cfg source.Config, entity license.Entity) license.Entity {
	defaults := cfg.RegionDefaults()
	if len(defaults) == 0 {
		return entity
	}

	rc := entity.RegionConfig()
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_ = rc.SetDefault(k, defaults[k])
	}
	return entity.WithRegionConfig(rc)
}

// quarantineInput records a failed input. Write failures are logged and
// swallowed.
func (n *Normalizer) quarantineInput(ctx context.Context, sourceID, url, rawContent string, cause error) {
	record := license.NewQuarantineRecord(sourceID, url, rawContent, cause.Error(), errorDetails(cause))
	if err := n.quarantine.Record(ctx, record); err != nil {
		n.logger.Error("quarantine write failed", "source", sourceID, "error", err)
	}
}

// errorDetails builds the structured detail map stored with a quarantine
// record.
func errorDetails(err error) map[string]any {
	var extErr *service.ExtractionError
	if errors.As(err, &extErr) {
		return extErr.DetailMap()
	}

	var valErr *license.ValidationError
	if errors.As(err, &valErr) {
		return map[string]any{
			"field":  valErr.Field,
			"reason": valErr.Reason,
		}
	}

	return map[string]any{"message": err.Error()}
}

// rowValue resolves a canonical field from a row: the configured mapping
// first, then the known header fallbacks.
func rowValue(cfg source.Config, row map[string]string, field string) string {
	if col := cfg.MappedColumn(field); col != "" {
		if v := strings.TrimSpace(row[col]); v != "" {
			return v
		}
	}
	for _, col := range waHeaderFallbacks[field] {
		if v := strings.TrimSpace(row[col]); v != "" {
			return v
		}
	}
	return ""
}

// rowCandidate builds an extraction-shaped candidate from a structured row.
func rowCandidate(cfg source.Config, row map[string]string, number string) map[string]any {
	candidate := map[string]any{
		license.FieldLicenseNumber: number,
		license.FieldVisibility:    license.VisibilityPublic.String(),
		license.FieldCountry:       "US",
	}

	for _, field := range []string{
		license.FieldLegalName,
		license.FieldDBAName,
		license.FieldLicenseType,
		license.FieldStatus,
		license.FieldAddressLine1,
		license.FieldAddressLine2,
		license.FieldCity,
		license.FieldPostalCode,
	} {
		if v := rowValue(cfg, row, field); v != "" {
			candidate[field] = v
		}
	}

	region := rowValue(cfg, row, license.FieldRegion)
	if region == "" {
		region = cfg.StateCode()
	}
	candidate[license.FieldRegion] = region

	rc := map[string]any{}
	for key, col := range rowRegionConfigColumns {
		if v := strings.TrimSpace(row[col]); v != "" {
			rc[key] = v
		}
	}
	if len(rc) > 0 {
		candidate[license.FieldRegionConfig] = rc
	}

	return candidate
}

// rowAsMarkdown renders a row for the extraction fallback, columns sorted so
// retries see identical input.
func rowAsMarkdown(row map[string]string) string {
	cols := make([]string, 0, len(row))
	for k := range row {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	var b strings.Builder
	b.WriteString("License Row:\n```csv\n")
	for _, col := range cols {
		fmt.Fprintf(&b, "%s: %s\n", col, row[col])
	}
	b.WriteString("```")
	return b.String()
}

// rowUnitURL is the symbolic location recorded for row-level failures, since
// a row has no URL of its own.
func rowUnitURL(cfg source.Config) string {
	return strings.ToUpper(cfg.StateCode()) + "_CSV_ROW"
}

func candidateJSON(candidate map[string]any) string {
	data, err := json.Marshal(candidate)
	if err != nil {
		return fmt.Sprint(candidate)
	}
	return string(data)
}
