package persistence

import (
	"context"
	"fmt"

	"github.com/smoketheglobe/license-etl/domain/license"
	"github.com/smoketheglobe/license-etl/domain/store"
	"github.com/smoketheglobe/license-etl/internal/database"
)

// QuarantineStore is the GORM implementation of license.QuarantineStore.
// The table is append-only; replay reads records and leaves them in place.
type QuarantineStore struct {
	db database.Database
}

// NewQuarantineStore creates a QuarantineStore.
func NewQuarantineStore(db database.Database) *QuarantineStore {
	return &QuarantineStore{db: db}
}

// Record appends a failed-parse record.
func (s *QuarantineStore) Record(ctx context.Context, record license.QuarantineRecord) error {
	model, err := quarantineToModel(record)
	if err != nil {
		return fmt.Errorf("record quarantine: %w", err)
	}
	if err := s.db.Session(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("record quarantine: %w", err)
	}
	return nil
}

// List returns quarantine records matching the given options, oldest first
// unless an explicit order is supplied.
func (s *QuarantineStore) List(ctx context.Context, options ...store.Option) ([]license.QuarantineRecord, error) {
	q := store.Build(options...)
	session := database.ApplyOptions(s.db.Session(ctx), options...)
	if len(q.Orders()) == 0 {
		session = session.Order("created_at ASC")
	}

	var models []QuarantineModel
	if err := session.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list quarantine: %w", err)
	}

	records := make([]license.QuarantineRecord, 0, len(models))
	for _, m := range models {
		r, err := quarantineToDomain(m)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
