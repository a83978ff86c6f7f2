package persistence

import (
	"context"
	"fmt"

	"github.com/smoketheglobe/license-etl/internal/database"
)

// AutoMigrate creates or updates the schema for all persistence models.
func AutoMigrate(ctx context.Context, db database.Database) error {
	session := db.Session(ctx)
	if err := session.AutoMigrate(
		&LicenseModel{},
		&StateLicenseModel{},
		&QuarantineModel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
