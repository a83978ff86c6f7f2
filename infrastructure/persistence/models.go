// Package persistence provides database storage implementations.
package persistence

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LicenseModel is the GORM model for extraction-sourced license entities.
// The composite unique index on (issuer, license_number) is the upsert
// conflict target. Optional columns are pointers so a partial extraction
// can distinguish "absent" from "empty" and never clobber stored values
// with nulls.
type LicenseModel struct {
	ID            string `gorm:"column:id;primaryKey;size:36"`
	LicenseNumber string `gorm:"column:license_number;size:255;uniqueIndex:idx_licenses_issuer_number"`
	Issuer        string `gorm:"column:issuer;size:32;uniqueIndex:idx_licenses_issuer_number"`
	Visibility    string `gorm:"column:visibility;size:16;default:public"`

	LegalName   *string `gorm:"column:legal_name;size:512"`
	DBAName     *string `gorm:"column:dba_name;size:512"`
	LicenseType *string `gorm:"column:license_type;size:255"`
	Status      *string `gorm:"column:status;size:255"`

	AddressLine1 *string `gorm:"column:address_line1;size:512"`
	AddressLine2 *string `gorm:"column:address_line2;size:512"`
	City         *string `gorm:"column:city;size:255"`
	Region       *string `gorm:"column:region;size:255"`
	PostalCode   *string `gorm:"column:postal_code;size:32"`
	Country      *string `gorm:"column:country;size:8"`

	RegionConfig *string `gorm:"column:region_config;type:text"`

	TransparencyScore decimal.Decimal `gorm:"column:transparency_score;type:numeric"`
	OwnerUserID       *string         `gorm:"column:owner_user_id;size:36"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (LicenseModel) TableName() string { return "licenses" }

// BeforeCreate assigns the id on first insert; the pipeline never supplies
// one for new records.
func (m *LicenseModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// StateLicenseModel is the GORM model for direct-feed US license records,
// keyed by (state_code, license_number).
type StateLicenseModel struct {
	ID            int64  `gorm:"column:id;primaryKey;autoIncrement"`
	StateCode     string `gorm:"column:state_code;size:8;uniqueIndex:idx_state_licenses_state_number"`
	LicenseNumber string `gorm:"column:license_number;size:255;uniqueIndex:idx_state_licenses_state_number"`
	LicenseType   string `gorm:"column:license_type;size:255"`
	Status        string `gorm:"column:status;size:255"`
	EntityName    string `gorm:"column:entity_name;size:512"`
	CountryCode   string `gorm:"column:country_code;size:8"`
	RegionCode    string `gorm:"column:region_code;size:8"`

	City      *string `gorm:"column:city;size:255"`
	IssuedAt  *string `gorm:"column:issued_at;size:64"`
	ExpiresAt *string `gorm:"column:expires_at;size:64"`

	SourceURL    *string `gorm:"column:source_url;size:1024"`
	SourceSystem *string `gorm:"column:source_system;size:255"`
	RawData      *string `gorm:"column:raw_data;type:text"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (StateLicenseModel) TableName() string { return "state_licenses" }

// QuarantineModel is the GORM model for the append-only failed-parse log.
// The table keeps the original service's name so existing jobs and
// dashboards continue to work.
type QuarantineModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Source       string    `gorm:"column:source;size:64;index"`
	URL          string    `gorm:"column:url;size:1024"`
	RawContent   string    `gorm:"column:markdown;type:text"`
	ErrorMessage string    `gorm:"column:error_message;type:text"`
	ErrorDetails *string   `gorm:"column:error_details;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

// TableName returns the table name.
func (QuarantineModel) TableName() string { return "etl_failed_parses" }
