package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smoketheglobe/license-etl/domain/etl"
	"github.com/smoketheglobe/license-etl/domain/license"
	"github.com/smoketheglobe/license-etl/domain/service"
	"github.com/smoketheglobe/license-etl/domain/source"
	"github.com/smoketheglobe/license-etl/domain/store"
)

// ReplayParams configures one self-healing pass.
type ReplayParams struct {
	// Source restricts the pass to one source id. Empty means all.
	Source string
	// MinAge excludes failures younger than this; fresh failures usually
	// reproduce the same model output and waste a retry.
	MinAge time.Duration
	// Limit caps how many records one pass attempts.
	Limit int
}

// Replay retries quarantined inputs through extraction and loads whatever
// now validates. Quarantine rows are an audit trail: they are read, never
// rewritten, and a retry that fails again is only counted.
type Replay struct {
	quarantine license.QuarantineStore
	extractor  service.Extractor
	store      license.Store
	logger     *slog.Logger
}

// NewReplay creates a Replay service.
func NewReplay(quarantine license.QuarantineStore, extractor service.Extractor, licStore license.Store, logger *slog.Logger) *Replay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Replay{
		quarantine: quarantine,
		extractor:  extractor,
		store:      licStore,
		logger:     logger,
	}
}

// Run executes one pass. The source configs resolve each record's issuer and
// region hint; records from sources no longer configured count as still
// failing.
func (r *Replay) Run(ctx context.Context, sources []source.Config, params ReplayParams) (etl.ReplaySummary, error) {
	configs := make(map[string]source.Config, len(sources))
	for _, cfg := range sources {
		configs[cfg.ID()] = cfg
	}

	options := []store.Option{
		license.WithCreatedBefore(time.Now().Add(-params.MinAge)),
	}
	if params.Source != "" {
		options = append(options, license.WithSource(params.Source))
	}
	if params.Limit > 0 {
		options = append(options, store.WithLimit(params.Limit))
	}

	records, err := r.quarantine.List(ctx, options...)
	if err != nil {
		return etl.ReplaySummary{}, fmt.Errorf("list quarantine: %w", err)
	}

	// Without an extractor nothing can be retried. The records stay in
	// quarantine and are counted as still failing, so a direct-feed-only
	// deployment with leftover extraction failures completes its run.
	if r.extractor == nil && len(records) > 0 {
		r.logger.Warn("quarantined records left in place",
			"records", len(records), "error", service.ErrNoExtractor)
		return etl.NewReplaySummary(len(records), 0, len(records)), nil
	}

	var (
		recovered    int
		stillFailing int
		batch        []license.Entity
	)

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return etl.ReplaySummary{}, err
		}

		cfg, ok := configs[record.Source()]
		if !ok {
			r.logger.Warn("quarantined record from unconfigured source",
				"source", record.Source(), "id", record.ID())
			stillFailing++
			continue
		}

		entities := r.retry(ctx, cfg, record)
		if len(entities) == 0 {
			stillFailing++
			continue
		}
		recovered++
		batch = append(batch, entities...)
	}

	if _, err := r.store.Upsert(ctx, dedupeEntities(batch)); err != nil {
		return etl.ReplaySummary{}, err
	}

	summary := etl.NewReplaySummary(len(records), recovered, stillFailing)
	r.logger.Info("replay complete",
		"attempted", summary.Attempted(),
		"recovered", summary.Recovered(),
		"still_failing", summary.StillFailing(),
	)
	return summary, nil
}

// retry re-extracts one quarantined input and returns the entities that now
// validate.
func (r *Replay) retry(ctx context.Context, cfg source.Config, record license.QuarantineRecord) []license.Entity {
	candidates, _, err := r.extractor.Extract(ctx, record.RawContent(), cfg.Issuer(), cfg.RegionHint())
	if err != nil {
		r.logger.Warn("replay extraction failed", "source", record.Source(), "id", record.ID(), "error", err)
		return nil
	}

	var entities []license.Entity
	for _, candidate := range candidates {
		entity, err := license.ValidateCandidate(candidate, cfg.Issuer())
		if err != nil {
			r.logger.Warn("replay candidate still invalid", "source", record.Source(), "id", record.ID(), "error", err)
			continue
		}
		entities = append(entities, applyRegionDefaults(cfg, entity))
	}
	return entities
}
