package license

import "time"

// StateRecord is the canonical record for the direct-feed US pipeline.
// It writes to its own table, keyed by (state_code, license_number),
// independent of the extraction-sourced entity table.
type StateRecord struct {
	id            int64
	stateCode     string
	licenseNumber string
	licenseType   string
	status        string
	entityName    string
	countryCode   string
	regionCode    string
	city          string
	issuedAt      string
	expiresAt     string
	sourceURL     string
	sourceSystem  string
	rawData       map[string]any
	createdAt     time.Time
	updatedAt     time.Time
}

// NewStateRecord creates a StateRecord with its natural-key fields.
func NewStateRecord(stateCode, licenseNumber string) StateRecord {
	return StateRecord{
		stateCode:     stateCode,
		licenseNumber: licenseNumber,
		licenseType:   "unknown",
		status:        "unknown",
		countryCode:   "US",
	}
}

// ReconstructStateRecord rebuilds a StateRecord from storage.
func ReconstructStateRecord(
	id int64,
	stateCode, licenseNumber, licenseType, status, entityName string,
	countryCode, regionCode, city string,
	issuedAt, expiresAt string,
	sourceURL, sourceSystem string,
	rawData map[string]any,
	createdAt, updatedAt time.Time,
) StateRecord {
	return StateRecord{
		id:            id,
		stateCode:     stateCode,
		licenseNumber: licenseNumber,
		licenseType:   licenseType,
		status:        status,
		entityName:    entityName,
		countryCode:   countryCode,
		regionCode:    regionCode,
		city:          city,
		issuedAt:      issuedAt,
		expiresAt:     expiresAt,
		sourceURL:     sourceURL,
		sourceSystem:  sourceSystem,
		rawData:       copyRaw(rawData),
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// ID returns the storage-assigned id.
func (r StateRecord) ID() int64 { return r.id }

// StateCode returns the two-letter state code (natural-key half).
func (r StateRecord) StateCode() string { return r.stateCode }

// LicenseNumber returns the source-provided identifier (natural-key half).
func (r StateRecord) LicenseNumber() string { return r.licenseNumber }

// LicenseType returns the license type, "unknown" when the feed omits it.
func (r StateRecord) LicenseType() string { return r.licenseType }

// Status returns the license status, "unknown" when the feed omits it.
func (r StateRecord) Status() string { return r.status }

// EntityName returns the licensed entity name.
func (r StateRecord) EntityName() string { return r.entityName }

// CountryCode returns the country code (always "US" for this path).
func (r StateRecord) CountryCode() string { return r.countryCode }

// RegionCode returns the region code derived from the source jurisdiction.
func (r StateRecord) RegionCode() string { return r.regionCode }

// City returns the city, or empty.
func (r StateRecord) City() string { return r.city }

// IssuedAt returns the issue date as reported by the feed.
func (r StateRecord) IssuedAt() string { return r.issuedAt }

// ExpiresAt returns the expiry date as reported by the feed.
func (r StateRecord) ExpiresAt() string { return r.expiresAt }

// SourceURL returns the endpoint the record was fetched from.
func (r StateRecord) SourceURL() string { return r.sourceURL }

// SourceSystem returns the upstream system name from the source config.
func (r StateRecord) SourceSystem() string { return r.sourceSystem }

// RawData returns a copy of the original feed row.
func (r StateRecord) RawData() map[string]any { return copyRaw(r.rawData) }

// CreatedAt returns the storage-assigned creation time.
func (r StateRecord) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the storage-assigned update time.
func (r StateRecord) UpdatedAt() time.Time { return r.updatedAt }

// WithDetails returns a copy with type, status, and entity name set.
// Empty type/status fall back to "unknown"; an empty entity name becomes
// "Unknown entity" so the feed's noise never produces blank display names.
func (r StateRecord) WithDetails(licenseType, status, entityName string) StateRecord {
	if licenseType == "" {
		licenseType = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	if entityName == "" {
		entityName = "Unknown entity"
	}
	r.licenseType = licenseType
	r.status = status
	r.entityName = entityName
	return r
}

// WithLocation returns a copy with region code and city set.
func (r StateRecord) WithLocation(regionCode, city string) StateRecord {
	r.regionCode = regionCode
	r.city = city
	return r
}

// WithDates returns a copy with issue and expiry dates set.
func (r StateRecord) WithDates(issuedAt, expiresAt string) StateRecord {
	r.issuedAt = issuedAt
	r.expiresAt = expiresAt
	return r
}

// WithProvenance returns a copy with source URL, system, and raw row set.
func (r StateRecord) WithProvenance(sourceURL, sourceSystem string, rawData map[string]any) StateRecord {
	r.sourceURL = sourceURL
	r.sourceSystem = sourceSystem
	r.rawData = copyRaw(rawData)
	return r
}

func copyRaw(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
