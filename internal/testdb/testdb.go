// Package testdb provides in-memory SQLite databases for tests.
package testdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smoketheglobe/license-etl/infrastructure/persistence"
	"github.com/smoketheglobe/license-etl/internal/database"
)

// New returns a migrated in-memory database, closed on test cleanup.
func New(t *testing.T) database.Database {
	t.Helper()
	db := NewPlain(t)
	require.NoError(t, persistence.AutoMigrate(context.Background(), db))
	return db
}

// NewPlain returns an unmigrated in-memory database, closed on test cleanup.
func NewPlain(t *testing.T) database.Database {
	t.Helper()
	db, err := database.NewDatabase(context.Background(), "sqlite:///:memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
