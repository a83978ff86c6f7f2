package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smoketheglobe/license-etl/domain/license"
	"github.com/smoketheglobe/license-etl/internal/database"
)

// upsertBatchSize bounds the number of rows per INSERT so large runs do not
// hit parameter limits on either dialect.
const upsertBatchSize = 100

// LicenseStore is the GORM implementation of license.Store.
type LicenseStore struct {
	db database.Database
}

// NewLicenseStore creates a LicenseStore.
func NewLicenseStore(db database.Database) *LicenseStore {
	return &LicenseStore{db: db}
}

// licenseConflictUpdates are the column assignments applied when an incoming
// row collides on (issuer, license_number). Optional columns go through
// COALESCE so a partial extraction never nulls out values an earlier, fuller
// one stored. transparency_score and owner_user_id are set once on insert
// and owned downstream afterwards, so conflicts leave them alone.
func licenseConflictUpdates() clause.Set {
	coalesced := []string{
		"legal_name",
		"dba_name",
		"license_type",
		"status",
		"address_line1",
		"address_line2",
		"city",
		"region",
		"postal_code",
		"country",
		"region_config",
	}

	assignments := map[string]any{
		"visibility": gorm.Expr("excluded.visibility"),
		"updated_at": gorm.Expr("excluded.updated_at"),
	}
	for _, col := range coalesced {
		assignments[col] = gorm.Expr(fmt.Sprintf("COALESCE(excluded.%s, licenses.%s)", col, col))
	}
	return clause.Assignments(assignments)
}

// Upsert inserts or updates entities by natural key. It returns the number
// of rows written. Empty input is a no-op that never touches the database.
func (s *LicenseStore) Upsert(ctx context.Context, entities []license.Entity) (int, error) {
	if len(entities) == 0 {
		return 0, nil
	}

	models := make([]LicenseModel, 0, len(entities))
	for _, e := range entities {
		m, err := licenseToModel(e)
		if err != nil {
			return 0, &license.UpsertError{Table: LicenseModel{}.TableName(), Err: err}
		}
		models = append(models, m)
	}

	result := s.db.Session(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "issuer"}, {Name: "license_number"}},
			DoUpdates: licenseConflictUpdates(),
		}).
		CreateInBatches(&models, upsertBatchSize)
	if result.Error != nil {
		return 0, &license.UpsertError{Table: LicenseModel{}.TableName(), Err: result.Error}
	}

	return len(models), nil
}

// FindByKey returns the entity with the given natural key, or
// database.ErrNotFound.
func (s *LicenseStore) FindByKey(ctx context.Context, key license.NaturalKey) (license.Entity, error) {
	var model LicenseModel
	err := s.db.Session(ctx).
		Where("issuer = ? AND license_number = ?", key.Issuer().String(), key.LicenseNumber()).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return license.Entity{}, database.ErrNotFound
		}
		return license.Entity{}, fmt.Errorf("find license: %w", err)
	}
	return licenseToDomain(model)
}

// Count returns the number of stored entities.
func (s *LicenseStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.Session(ctx).Model(&LicenseModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count licenses: %w", err)
	}
	return count, nil
}
