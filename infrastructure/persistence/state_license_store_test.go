package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smoketheglobe/license-etl/domain/license"
	"github.com/smoketheglobe/license-etl/domain/store"
)

func TestStateLicenseStore_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewStateLicenseStore(newTestDB(t))

	rec := license.NewStateRecord("OK", "OK-42").
		WithDetails("dispensary", "active", "Sooner Wellness").
		WithLocation("OK", "Tulsa").
		WithProvenance("https://example.test/feed", "OMMA", map[string]any{"license_number": "OK-42"})

	count, err := s.Upsert(ctx, []license.StateRecord{rec})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The feed is authoritative: a later row with the same key replaces
	// every mutable column, including ones the new row leaves empty.
	updated := license.NewStateRecord("OK", "OK-42").
		WithDetails("dispensary", "expired", "Sooner Wellness")
	_, err = s.Upsert(ctx, []license.StateRecord{updated})
	require.NoError(t, err)

	total, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	found, err := s.Find(ctx, store.WithCondition("state_code", "OK"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "expired", found[0].Status())
	assert.Empty(t, found[0].City(), "overwrite semantics replace absent fields too")
}

func TestStateLicenseStore_DefaultsSurviveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStateLicenseStore(newTestDB(t))

	rec := license.NewStateRecord("NM", "NM-7").WithDetails("", "", "")
	_, err := s.Upsert(ctx, []license.StateRecord{rec})
	require.NoError(t, err)

	found, err := s.Find(ctx, store.WithCondition("license_number", "NM-7"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "unknown", found[0].LicenseType())
	assert.Equal(t, "unknown", found[0].Status())
	assert.Equal(t, "Unknown entity", found[0].EntityName())
	assert.Equal(t, "US", found[0].CountryCode())
}

func TestStateLicenseStore_EmptyInputIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := NewStateLicenseStore(newTestDB(t))

	count, err := s.Upsert(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}
