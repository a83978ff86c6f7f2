// Package license provides the canonical license entity and its invariants.
package license

import (
	"time"

	"github.com/shopspring/decimal"
)

// Issuer identifies the regulatory body that granted a license.
// Controlled vocabulary, never free text from source content.
type Issuer string

// Known issuers.
const (
	IssuerCaliforniaDCC Issuer = "CA-DCC"
	IssuerWashingtonLCB Issuer = "WA-LCB"
	IssuerGermanyClub   Issuer = "DE-CLUB"
	IssuerThailandPlook Issuer = "TH-PLOOK"
)

// Valid reports whether the issuer is part of the controlled vocabulary.
func (i Issuer) Valid() bool {
	switch i {
	case IssuerCaliforniaDCC, IssuerWashingtonLCB, IssuerGermanyClub, IssuerThailandPlook:
		return true
	}
	return false
}

// String returns the issuer code.
func (i Issuer) String() string { return string(i) }

// Visibility controls who can see a license record downstream.
type Visibility string

// Visibility values.
const (
	VisibilityPublic   Visibility = "public"
	VisibilityVerified Visibility = "verified"
	VisibilityPrivate  Visibility = "private"
)

// Valid reports whether the visibility is a known value.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityVerified, VisibilityPrivate:
		return true
	}
	return false
}

// String returns the visibility value.
func (v Visibility) String() string { return string(v) }

// Address holds the optional postal address of a licensed premise.
// Country should be ISO-3166 alpha-2/3 when known; absence is tolerated.
type Address struct {
	line1      string
	line2      string
	city       string
	region     string
	postalCode string
	country    string
}

// NewAddress creates an Address.
func NewAddress(line1, line2, city, region, postalCode, country string) Address {
	return Address{
		line1:      line1,
		line2:      line2,
		city:       city,
		region:     region,
		postalCode: postalCode,
		country:    country,
	}
}

// Line1 returns the first address line.
func (a Address) Line1() string { return a.line1 }

// Line2 returns the second address line.
func (a Address) Line2() string { return a.line2 }

// City returns the city.
func (a Address) City() string { return a.city }

// Region returns the state/province/region.
func (a Address) Region() string { return a.region }

// PostalCode returns the postal code.
func (a Address) PostalCode() string { return a.postalCode }

// Country returns the ISO-3166 country code, or empty when unknown.
func (a Address) Country() string { return a.country }

// IsZero reports whether no address field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// NaturalKey is the business-meaningful identity of one logical license
// on the extraction-sourced path. Re-ingestion of the same key must
// update, never duplicate.
type NaturalKey struct {
	issuer        Issuer
	licenseNumber string
}

// NewNaturalKey creates a NaturalKey.
func NewNaturalKey(issuer Issuer, licenseNumber string) NaturalKey {
	return NaturalKey{issuer: issuer, licenseNumber: licenseNumber}
}

// Issuer returns the key's issuer.
func (k NaturalKey) Issuer() Issuer { return k.issuer }

// LicenseNumber returns the key's license number.
func (k NaturalKey) LicenseNumber() string { return k.licenseNumber }

// Entity is the canonical license record produced by normalization.
// All fields except licenseNumber and issuer are optional.
type Entity struct {
	id            string
	licenseNumber string
	issuer        Issuer
	visibility    Visibility

	legalName   string
	dbaName     string
	licenseType string
	status      string

	address      Address
	regionConfig RegionConfig

	transparencyScore decimal.Decimal
	ownerUserID       string

	createdAt time.Time
	updatedAt time.Time
}

// NewEntity creates an Entity with the required natural-key fields.
// Visibility defaults to public; the id is assigned by storage on first
// insert and must be left empty for new records.
func NewEntity(licenseNumber string, issuer Issuer) Entity {
	return Entity{
		licenseNumber:     licenseNumber,
		issuer:            issuer,
		visibility:        VisibilityPublic,
		transparencyScore: decimal.Zero,
	}
}

// ReconstructEntity rebuilds an Entity from storage (used by mappers).
func ReconstructEntity(
	id string,
	licenseNumber string,
	issuer Issuer,
	visibility Visibility,
	legalName, dbaName, licenseType, status string,
	address Address,
	regionConfig RegionConfig,
	transparencyScore decimal.Decimal,
	ownerUserID string,
	createdAt, updatedAt time.Time,
) Entity {
	return Entity{
		id:                id,
		licenseNumber:     licenseNumber,
		issuer:            issuer,
		visibility:        visibility,
		legalName:         legalName,
		dbaName:           dbaName,
		licenseType:       licenseType,
		status:            status,
		address:           address,
		regionConfig:      regionConfig.Clone(),
		transparencyScore: transparencyScore,
		ownerUserID:       ownerUserID,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// ID returns the storage-assigned id, or empty for a new record.
func (e Entity) ID() string { return e.id }

// LicenseNumber returns the source-provided identifier.
func (e Entity) LicenseNumber() string { return e.licenseNumber }

// Issuer returns the issuing regulatory body.
func (e Entity) Issuer() Issuer { return e.issuer }

// Visibility returns the record visibility.
func (e Entity) Visibility() Visibility { return e.visibility }

// LegalName returns the registered legal name.
func (e Entity) LegalName() string { return e.legalName }

// DBAName returns the doing-business-as name.
func (e Entity) DBAName() string { return e.dbaName }

// LicenseType returns the license type.
func (e Entity) LicenseType() string { return e.licenseType }

// Status returns the license status as reported by the source.
func (e Entity) Status() string { return e.status }

// Address returns the premise address.
func (e Entity) Address() Address { return e.address }

// RegionConfig returns a copy of the region-specific field bag.
func (e Entity) RegionConfig() RegionConfig { return e.regionConfig.Clone() }

// TransparencyScore returns the downstream-maintained score. The pipeline
// sets it once on insert and never overwrites it afterwards.
func (e Entity) TransparencyScore() decimal.Decimal { return e.transparencyScore }

// OwnerUserID returns the linked account id, set later by account-linking.
func (e Entity) OwnerUserID() string { return e.ownerUserID }

// CreatedAt returns the storage-assigned creation time.
func (e Entity) CreatedAt() time.Time { return e.createdAt }

// UpdatedAt returns the storage-assigned update time.
func (e Entity) UpdatedAt() time.Time { return e.updatedAt }

// Key returns the entity's natural key.
func (e Entity) Key() NaturalKey {
	return NewNaturalKey(e.issuer, e.licenseNumber)
}

// WithVisibility returns a copy with the given visibility.
func (e Entity) WithVisibility(v Visibility) Entity {
	e.visibility = v
	return e
}

// WithNames returns a copy with legal and DBA names set.
func (e Entity) WithNames(legalName, dbaName string) Entity {
	e.legalName = legalName
	e.dbaName = dbaName
	return e
}

// WithLicenseType returns a copy with the license type set.
func (e Entity) WithLicenseType(t string) Entity {
	e.licenseType = t
	return e
}

// WithStatus returns a copy with the status set.
func (e Entity) WithStatus(s string) Entity {
	e.status = s
	return e
}

// WithAddress returns a copy with the address set.
func (e Entity) WithAddress(a Address) Entity {
	e.address = a
	return e
}

// WithRegionConfig returns a copy with the region config replaced.
func (e Entity) WithRegionConfig(rc RegionConfig) Entity {
	e.regionConfig = rc.Clone()
	return e
}
