package service

import (
	"context"
	"testing"

	"github.com/smoketheglobe/license-etl/domain/license"
	"github.com/smoketheglobe/license-etl/domain/source"
	"github.com/smoketheglobe/license-etl/infrastructure/persistence"
	"github.com/smoketheglobe/license-etl/internal/database"
	"github.com/smoketheglobe/license-etl/internal/testdb"
)

// stores bundles the real SQLite-backed stores used by these tests.
type stores struct {
	db         database.Database
	licenses   *persistence.LicenseStore
	states     *persistence.StateLicenseStore
	quarantine *persistence.QuarantineStore
}

func newStores(t *testing.T) stores {
	t.Helper()
	db := testdb.New(t)
	return stores{
		db:         db,
		licenses:   persistence.NewLicenseStore(db),
		states:     persistence.NewStateLicenseStore(db),
		quarantine: persistence.NewQuarantineStore(db),
	}
}

// fakeExtractor delegates to a function so each test scripts its own model.
type fakeExtractor struct {
	fn    func(text string, issuer license.Issuer) ([]map[string]any, string, error)
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, text string, issuer license.Issuer, _ string) ([]map[string]any, string, error) {
	f.calls++
	return f.fn(text, issuer)
}

// fetchItem is one yield of a fake batch: a unit or a failure.
type fetchItem struct {
	unit source.RawUnit
	err  error
}

// fakeAdapter replays a scripted sequence of units and failures.
type fakeAdapter struct {
	items []fetchItem
}

func (f *fakeAdapter) Fetch(_ context.Context, _ source.Config) source.Batch {
	return func(yield func(source.RawUnit, error) bool) {
		for _, item := range f.items {
			if !yield(item.unit, item.err) {
				return
			}
		}
	}
}

func extractionConfig(id string, issuer license.Issuer) source.Config {
	return source.NewConfig(id, "US-CA", "https://example.test/"+id, source.TypePage, source.PathExtraction).
		WithIssuer(issuer, "test region")
}
