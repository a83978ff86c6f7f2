package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/smoketheglobe/license-etl/domain/license"
	"github.com/smoketheglobe/license-etl/domain/store"
	"github.com/smoketheglobe/license-etl/internal/database"
)

// StateLicenseStore is the GORM implementation of license.StateStore.
// Direct feeds are authoritative for their rows, so conflicts overwrite
// every mutable column instead of merging.
type StateLicenseStore struct {
	db database.Database
}

// NewStateLicenseStore creates a StateLicenseStore.
func NewStateLicenseStore(db database.Database) *StateLicenseStore {
	return &StateLicenseStore{db: db}
}

// Upsert inserts or updates records by (state_code, license_number) and
// returns the number of rows written. Empty input is a no-op.
func (s *StateLicenseStore) Upsert(ctx context.Context, records []license.StateRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	models := make([]StateLicenseModel, 0, len(records))
	for _, r := range records {
		m, err := stateToModel(r)
		if err != nil {
			return 0, &license.UpsertError{Table: StateLicenseModel{}.TableName(), Err: err}
		}
		models = append(models, m)
	}

	result := s.db.Session(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "state_code"}, {Name: "license_number"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"license_type",
				"status",
				"entity_name",
				"country_code",
				"region_code",
				"city",
				"issued_at",
				"expires_at",
				"source_url",
				"source_system",
				"raw_data",
				"updated_at",
			}),
		}).
		CreateInBatches(&models, upsertBatchSize)
	if result.Error != nil {
		return 0, &license.UpsertError{Table: StateLicenseModel{}.TableName(), Err: result.Error}
	}

	return len(models), nil
}

// Find returns records matching the given options.
func (s *StateLicenseStore) Find(ctx context.Context, options ...store.Option) ([]license.StateRecord, error) {
	var models []StateLicenseModel
	session := database.ApplyOptions(s.db.Session(ctx), options...)
	if err := session.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find state licenses: %w", err)
	}

	records := make([]license.StateRecord, 0, len(models))
	for _, m := range models {
		r, err := stateToDomain(m)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *StateLicenseStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.Session(ctx).Model(&StateLicenseModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count state licenses: %w", err)
	}
	return count, nil
}
