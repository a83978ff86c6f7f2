package license

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCandidate_FullCandidate(t *testing.T) {
	candidate := map[string]any{
		"license_number": "C10-0000123-LIC",
		"legal_name":     "Golden State Collective LLC",
		"dba_name":       "GSC",
		"license_type":   "retail",
		"status":         "active",
		"address_line1":  "500 Mission St",
		"city":           "San Francisco",
		"region":         "CA",
		"postal_code":    "94105",
		"country":        "US",
		"region_config": map[string]any{
			"county": "San Francisco",
		},
	}

	entity, err := ValidateCandidate(candidate, IssuerCaliforniaDCC)
	require.NoError(t, err)

	assert.Equal(t, "C10-0000123-LIC", entity.LicenseNumber())
	assert.Equal(t, IssuerCaliforniaDCC, entity.Issuer())
	assert.Equal(t, VisibilityPublic, entity.Visibility(), "visibility defaults to public")
	assert.Equal(t, "Golden State Collective LLC", entity.LegalName())
	assert.Equal(t, "GSC", entity.DBAName())
	assert.Equal(t, "San Francisco", entity.Address().City())

	county, ok := entity.RegionConfig().Get("county")
	require.True(t, ok)
	assert.Equal(t, "San Francisco", county)
}

func TestValidateCandidate_MissingLicenseNumber(t *testing.T) {
	_, err := ValidateCandidate(map[string]any{"legal_name": "No Number Inc"}, IssuerWashingtonLCB)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, FieldLicenseNumber, verr.Field)
}

func TestValidateCandidate_BlankLicenseNumber(t *testing.T) {
	_, err := ValidateCandidate(map[string]any{"license_number": "   "}, IssuerWashingtonLCB)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, FieldLicenseNumber, verr.Field)
}

func TestValidateCandidate_NullOptionalFields(t *testing.T) {
	candidate := map[string]any{
		"license_number": "414876",
		"legal_name":     nil,
		"city":           nil,
	}

	entity, err := ValidateCandidate(candidate, IssuerWashingtonLCB)
	require.NoError(t, err)
	assert.Empty(t, entity.LegalName())
	assert.Empty(t, entity.Address().City())
}

func TestValidateCandidate_WrongFieldType(t *testing.T) {
	candidate := map[string]any{
		"license_number": "414876",
		"status":         42.0,
	}

	_, err := ValidateCandidate(candidate, IssuerWashingtonLCB)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, FieldStatus, verr.Field)
}

func TestValidateCandidate_UnknownVisibility(t *testing.T) {
	candidate := map[string]any{
		"license_number": "CLUB-001",
		"visibility":     "secret",
	}

	_, err := ValidateCandidate(candidate, IssuerGermanyClub)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, FieldVisibility, verr.Field)
}

func TestValidateCandidate_RegionConfigMustBeObject(t *testing.T) {
	candidate := map[string]any{
		"license_number": "CLUB-001",
		"region_config":  "not an object",
	}

	_, err := ValidateCandidate(candidate, IssuerGermanyClub)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, FieldRegionConfig, verr.Field)
}

func TestValidateCandidate_UnknownIssuer(t *testing.T) {
	candidate := map[string]any{"license_number": "X-1"}

	_, err := ValidateCandidate(candidate, Issuer("XX-NOPE"))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, FieldIssuer, verr.Field)
}
