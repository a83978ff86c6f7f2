package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/smoketheglobe/license-etl/domain/license"
)

// licenseToModel converts a domain entity to its GORM model. Empty optional
// fields map to nil columns so the upsert's null-safe assignments leave
// existing values untouched.
func licenseToModel(e license.Entity) (LicenseModel, error) {
	m := LicenseModel{
		ID:                e.ID(),
		LicenseNumber:     e.LicenseNumber(),
		Issuer:            e.Issuer().String(),
		Visibility:        e.Visibility().String(),
		LegalName:         optional(e.LegalName()),
		DBAName:           optional(e.DBAName()),
		LicenseType:       optional(e.LicenseType()),
		Status:            optional(e.Status()),
		TransparencyScore: e.TransparencyScore(),
		OwnerUserID:       optional(e.OwnerUserID()),
		CreatedAt:         e.CreatedAt(),
		UpdatedAt:         e.UpdatedAt(),
	}

	addr := e.Address()
	m.AddressLine1 = optional(addr.Line1())
	m.AddressLine2 = optional(addr.Line2())
	m.City = optional(addr.City())
	m.Region = optional(addr.Region())
	m.PostalCode = optional(addr.PostalCode())
	m.Country = optional(addr.Country())

	if rc := e.RegionConfig(); rc.Len() > 0 {
		data, err := json.Marshal(rc)
		if err != nil {
			return LicenseModel{}, fmt.Errorf("marshal region config: %w", err)
		}
		s := string(data)
		m.RegionConfig = &s
	}

	return m, nil
}

// licenseToDomain converts a GORM model back to a domain entity.
func licenseToDomain(m LicenseModel) (license.Entity, error) {
	rc := license.NewRegionConfig()
	if m.RegionConfig != nil && *m.RegionConfig != "" {
		if err := json.Unmarshal([]byte(*m.RegionConfig), &rc); err != nil {
			return license.Entity{}, fmt.Errorf("unmarshal region config: %w", err)
		}
	}

	addr := license.NewAddress(
		deref(m.AddressLine1),
		deref(m.AddressLine2),
		deref(m.City),
		deref(m.Region),
		deref(m.PostalCode),
		deref(m.Country),
	)

	return license.ReconstructEntity(
		m.ID,
		m.LicenseNumber,
		license.Issuer(m.Issuer),
		license.Visibility(m.Visibility),
		deref(m.LegalName),
		deref(m.DBAName),
		deref(m.LicenseType),
		deref(m.Status),
		addr,
		rc,
		m.TransparencyScore,
		deref(m.OwnerUserID),
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

// stateToModel converts a direct-feed record to its GORM model.
func stateToModel(r license.StateRecord) (StateLicenseModel, error) {
	m := StateLicenseModel{
		ID:            r.ID(),
		StateCode:     r.StateCode(),
		LicenseNumber: r.LicenseNumber(),
		LicenseType:   r.LicenseType(),
		Status:        r.Status(),
		EntityName:    r.EntityName(),
		CountryCode:   r.CountryCode(),
		RegionCode:    r.RegionCode(),
		City:          optional(r.City()),
		IssuedAt:      optional(r.IssuedAt()),
		ExpiresAt:     optional(r.ExpiresAt()),
		SourceURL:     optional(r.SourceURL()),
		SourceSystem:  optional(r.SourceSystem()),
		CreatedAt:     r.CreatedAt(),
		UpdatedAt:     r.UpdatedAt(),
	}

	if raw := r.RawData(); len(raw) > 0 {
		data, err := json.Marshal(raw)
		if err != nil {
			return StateLicenseModel{}, fmt.Errorf("marshal raw data: %w", err)
		}
		s := string(data)
		m.RawData = &s
	}

	return m, nil
}

// stateToDomain converts a GORM model back to a direct-feed record.
func stateToDomain(m StateLicenseModel) (license.StateRecord, error) {
	var raw map[string]any
	if m.RawData != nil && *m.RawData != "" {
		if err := json.Unmarshal([]byte(*m.RawData), &raw); err != nil {
			return license.StateRecord{}, fmt.Errorf("unmarshal raw data: %w", err)
		}
	}

	return license.ReconstructStateRecord(
		m.ID,
		m.StateCode,
		m.LicenseNumber,
		m.LicenseType,
		m.Status,
		m.EntityName,
		m.CountryCode,
		m.RegionCode,
		deref(m.City),
		deref(m.IssuedAt),
		deref(m.ExpiresAt),
		deref(m.SourceURL),
		deref(m.SourceSystem),
		raw,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

// quarantineToModel converts a quarantine record to its GORM model.
func quarantineToModel(r license.QuarantineRecord) (QuarantineModel, error) {
	m := QuarantineModel{
		ID:           r.ID(),
		Source:       r.Source(),
		URL:          r.URL(),
		RawContent:   r.RawContent(),
		ErrorMessage: r.ErrorMessage(),
		CreatedAt:    r.CreatedAt(),
	}

	if details := r.ErrorDetails(); len(details) > 0 {
		data, err := json.Marshal(details)
		if err != nil {
			return QuarantineModel{}, fmt.Errorf("marshal error details: %w", err)
		}
		s := string(data)
		m.ErrorDetails = &s
	}

	return m, nil
}

// quarantineToDomain converts a GORM model back to a quarantine record.
func quarantineToDomain(m QuarantineModel) (license.QuarantineRecord, error) {
	var details map[string]any
	if m.ErrorDetails != nil && *m.ErrorDetails != "" {
		if err := json.Unmarshal([]byte(*m.ErrorDetails), &details); err != nil {
			return license.QuarantineRecord{}, fmt.Errorf("unmarshal error details: %w", err)
		}
	}

	return license.ReconstructQuarantineRecord(
		m.ID,
		m.Source,
		m.URL,
		m.RawContent,
		m.ErrorMessage,
		details,
		m.CreatedAt,
	), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
