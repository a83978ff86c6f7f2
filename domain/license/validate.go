package license

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports a candidate that failed schema or invariant checks.
// It is contained within normalization: the record is quarantined, never
// propagated as a pipeline failure.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate license: field %q: %s", e.Field, e.Reason)
}

// Candidate field names accepted from the extraction collaborator.
// These mirror the OpenTHC-style column names of the licenses table.
const (
	FieldLicenseNumber = "license_number"
	FieldIssuer        = "issuer"
	FieldVisibility    = "visibility"
	FieldLegalName     = "legal_name"
	FieldDBAName       = "dba_name"
	FieldLicenseType   = "license_type"
	FieldStatus        = "status"
	FieldAddressLine1  = "address_line1"
	FieldAddressLine2  = "address_line2"
	FieldCity          = "city"
	FieldRegion        = "region"
	FieldPostalCode    = "postal_code"
	FieldCountry       = "country"
	FieldRegionConfig  = "region_config"
)

// ValidateCandidate checks one extraction candidate against the entity schema
// and builds the canonical Entity.
//
// The issuer is always forced to the caller-supplied value regardless of what
// the candidate claims, so one source can never write records under another
// issuer's key space. Visibility defaults to public when absent.
func ValidateCandidate(candidate map[string]any, issuer Issuer) (Entity, error) {
	if !issuer.Valid() {
		return Entity{}, &ValidationError{Field: FieldIssuer, Reason: fmt.Sprintf("unknown issuer %q", issuer)}
	}

	number, err := requiredString(candidate, FieldLicenseNumber)
	if err != nil {
		return Entity{}, err
	}

	visibility := VisibilityPublic
	if raw, ok := candidate[FieldVisibility]; ok && raw != nil {
		s, err := asString(raw, FieldVisibility)
		if err != nil {
			return Entity{}, err
		}
		if s != "" {
			visibility = Visibility(s)
			if !visibility.Valid() {
				return Entity{}, &ValidationError{Field: FieldVisibility, Reason: fmt.Sprintf("unknown visibility %q", s)}
			}
		}
	}

	entity := NewEntity(number, issuer).WithVisibility(visibility)

	legalName, err := optionalString(candidate, FieldLegalName)
	if err != nil {
		return Entity{}, err
	}
	dbaName, err := optionalString(candidate, FieldDBAName)
	if err != nil {
		return Entity{}, err
	}
	entity = entity.WithNames(legalName, dbaName)

	licenseType, err := optionalString(candidate, FieldLicenseType)
	if err != nil {
		return Entity{}, err
	}
	status, err := optionalString(candidate, FieldStatus)
	if err != nil {
		return Entity{}, err
	}
	entity = entity.WithLicenseType(licenseType).WithStatus(status)

	addr, err := candidateAddress(candidate)
	if err != nil {
		return Entity{}, err
	}
	entity = entity.WithAddress(addr)

	if raw, ok := candidate[FieldRegionConfig]; ok && raw != nil {
		bag, ok := raw.(map[string]any)
		if !ok {
			return Entity{}, &ValidationError{Field: FieldRegionConfig, Reason: fmt.Sprintf("expected object, got %T", raw)}
		}
		rc := NewRegionConfig()
		for _, k := range sortedKeys(bag) {
			if err := rc.Set(k, bag[k]); err != nil {
				return Entity{}, &ValidationError{Field: FieldRegionConfig, Reason: err.Error()}
			}
		}
		entity = entity.WithRegionConfig(rc)
	}

	return entity, nil
}

func candidateAddress(candidate map[string]any) (Address, error) {
	var parts [6]string
	fields := []string{
		FieldAddressLine1, FieldAddressLine2, FieldCity,
		FieldRegion, FieldPostalCode, FieldCountry,
	}
	for i, f := range fields {
		s, err := optionalString(candidate, f)
		if err != nil {
			return Address{}, err
		}
		parts[i] = s
	}
	return NewAddress(parts[0], parts[1], parts[2], parts[3], parts[4], parts[5]), nil
}

func requiredString(candidate map[string]any, field string) (string, error) {
	raw, ok := candidate[field]
	if !ok || raw == nil {
		return "", &ValidationError{Field: field, Reason: "required field missing"}
	}
	s, err := asString(raw, field)
	if err != nil {
		return "", err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &ValidationError{Field: field, Reason: "required field empty"}
	}
	return s, nil
}

func optionalString(candidate map[string]any, field string) (string, error) {
	raw, ok := candidate[field]
	if !ok || raw == nil {
		return "", nil
	}
	return asString(raw, field)
}

func asString(raw any, field string) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", &ValidationError{Field: field, Reason: fmt.Sprintf("expected string, got %T", raw)}
	}
	return s, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
