package license

import (
	"context"
	"fmt"
	"time"

	"github.com/smoketheglobe/license-etl/domain/store"
)

// UpsertError reports a storage-layer failure during a batch upsert.
// It marks the owning source pipeline as failed for the run; retry policy
// belongs to the orchestrator, never to the store.
type UpsertError struct {
	Table string
	Err   error
}

// Error implements error.
func (e *UpsertError) Error() string {
	return fmt.Sprintf("upsert into %s: %v", e.Table, e.Err)
}

// Unwrap returns the underlying storage error.
func (e *UpsertError) Unwrap() error { return e.Err }

// Store persists extraction-sourced entities, keyed by (issuer,
// license_number). Upsert is idempotent: a key conflict updates the existing
// row instead of duplicating it, and null/absent optional fields in the
// incoming record never overwrite existing non-null values (sources on this
// path are explicitly partial). Empty input is a no-op with no round trip.
type Store interface {
	Upsert(ctx context.Context, entities []Entity) (int, error)
	FindByKey(ctx context.Context, key NaturalKey) (Entity, error)
	Count(ctx context.Context) (int64, error)
}

// StateStore persists direct-feed records, keyed by (state_code,
// license_number). On conflict all mutable columns are overwritten by the
// incoming record; direct feeds are authoritative for their own rows.
type StateStore interface {
	Upsert(ctx context.Context, records []StateRecord) (int, error)
	Find(ctx context.Context, options ...store.Option) ([]StateRecord, error)
	Count(ctx context.Context) (int64, error)
}

// QuarantineStore is the append-only log of normalization failures.
// Record must be safe for concurrent callers; List serves the replay path.
type QuarantineStore interface {
	Record(ctx context.Context, record QuarantineRecord) error
	List(ctx context.Context, options ...store.Option) ([]QuarantineRecord, error)
}

// Quarantine listing options.

// WithSource filters quarantine records by source id.
func WithSource(source string) store.Option {
	return store.WithCondition("source", source)
}

// WithCreatedBefore keeps records created at or before t. The replay loop
// uses this to skip failures that are too fresh to be worth retrying.
func WithCreatedBefore(t time.Time) store.Option {
	return store.WithConditionOp("created_at", store.OpLessOrEqual, t)
}
