package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/smoketheglobe/license-etl/domain/etl"
	"github.com/smoketheglobe/license-etl/domain/license"
	"github.com/smoketheglobe/license-etl/domain/source"
)

// Pipeline runs the fetch -> normalize -> load loop for every enabled
// source. Sources run concurrently and fail independently: one source's
// failure is recorded in the summary and never stops its siblings.
type Pipeline struct {
	adapters   map[source.Type]source.Adapter
	normalizer *Normalizer
	store      license.Store
	stateStore license.StateStore
	logger     *slog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(
	adapters map[source.Type]source.Adapter,
	normalizer *Normalizer,
	store license.Store,
	stateStore license.StateStore,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		adapters:   adapters,
		normalizer: normalizer,
		store:      store,
		stateStore: stateStore,
		logger:     logger,
	}
}

// Run executes one pass over the given sources. Disabled sources are skipped
// silently. The returned summary is the sole failure signal: Run itself only
// errors when the context is canceled before completion.
func (p *Pipeline) Run(ctx context.Context, sources []source.Config) (etl.RunSummary, error) {
	var (
		mu      sync.Mutex
		results []etl.SourceResult
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, cfg := range sources {
		if !cfg.Enabled() {
			p.logger.Info("source disabled, skipping", "source", cfg.ID())
			continue
		}

		g.Go(func() error {
			result := p.runSource(gctx, cfg)
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return etl.RunSummary{}, err
	}
	if err := ctx.Err(); err != nil {
		return etl.RunSummary{}, err
	}

	summary := etl.NewRunSummary(results)
	p.logger.Info("run complete",
		"sources", summary.Len(),
		"records", summary.TotalCount(),
		"ok", summary.Ok(),
	)
	return summary, nil
}

// runSource walks one source through its pipeline states. Terminal failure
// happens in exactly two places: a fetch that delivers nothing, and a load
// that cannot write.
func (p *Pipeline) runSource(ctx context.Context, cfg source.Config) etl.SourceResult {
	logger := p.logger.With("source", cfg.ID())
	state := etl.StatePending

	fail := func(err error, stats UnitOutcome, fetchFailures int) etl.SourceResult {
		logger.Error("source pipeline failed", "state", state.String(), "error", err)
		return etl.NewSourceResult(cfg.ID(), etl.StateFailed,
			0, stats.Skipped, stats.Quarantined, fetchFailures, err)
	}

	adapter, ok := p.adapters[cfg.SourceType()]
	if !ok {
		return fail(&source.FetchError{SourceID: cfg.ID(), Err: errUnknownSourceType(cfg.SourceType())}, UnitOutcome{}, 0)
	}

	state = etl.StateFetching
	logger.Info("fetching", "endpoint", cfg.Endpoint(), "type", cfg.SourceType())

	var (
		totals        UnitOutcome
		delivered     int
		fetchFailures int
		firstFetchErr error
	)

	state = etl.StateNormalizing
	for unit, err := range adapter.Fetch(ctx, cfg) {
		if err != nil {
			fetchFailures++
			if firstFetchErr == nil {
				firstFetchErr = err
			}
			logger.Warn("unit fetch failed", "error", err)
			continue
		}
		delivered++

		outcome := p.normalizer.NormalizeUnit(ctx, cfg, unit)
		totals.Entities = append(totals.Entities, outcome.Entities...)
		totals.Records = append(totals.Records, outcome.Records...)
		totals.Skipped += outcome.Skipped
		totals.Quarantined += outcome.Quarantined
	}

	if err := ctx.Err(); err != nil {
		return fail(err, totals, fetchFailures)
	}

	// A source that delivered nothing at all failed outright. Partial
	// delivery is an Ok outcome with the failures counted.
	if delivered == 0 && firstFetchErr != nil {
		return fail(firstFetchErr, totals, fetchFailures)
	}

	state = etl.StateLoading
	count, err := p.load(ctx, cfg, totals)
	if err != nil {
		return fail(err, totals, fetchFailures)
	}

	logger.Info("source done",
		"records", count,
		"skipped", totals.Skipped,
		"quarantined", totals.Quarantined,
		"fetch_failures", fetchFailures,
	)
	return etl.NewSourceResult(cfg.ID(), etl.StateDone,
		count, totals.Skipped, totals.Quarantined, fetchFailures, nil)
}

// load writes the batch to the store for the source's persistence path.
// Duplicate natural keys within the batch collapse to the last occurrence
// before the write, matching the upsert's conflict semantics.
func (p *Pipeline) load(ctx context.Context, cfg source.Config, totals UnitOutcome) (int, error) {
	if cfg.PersistencePath() == source.PathDirect {
		return p.stateStore.Upsert(ctx, dedupeRecords(totals.Records))
	}
	return p.store.Upsert(ctx, dedupeEntities(totals.Entities))
}

// dedupeEntities keeps the last occurrence per natural key, in first-seen
// order.
func dedupeEntities(entities []license.Entity) []license.Entity {
	if len(entities) < 2 {
		return entities
	}
	index := make(map[license.NaturalKey]int, len(entities))
	out := make([]license.Entity, 0, len(entities))
	for _, e := range entities {
		if i, ok := index[e.Key()]; ok {
			out[i] = e
			continue
		}
		index[e.Key()] = len(out)
		out = append(out, e)
	}
	return out
}

func errUnknownSourceType(t source.Type) error {
	return fmt.Errorf("no adapter registered for source type %q", t)
}

type stateKey struct {
	stateCode     string
	licenseNumber string
}

// dedupeRecords keeps the last occurrence per (state_code, license_number),
// in first-seen order.
func dedupeRecords(records []license.StateRecord) []license.StateRecord {
	if len(records) < 2 {
		return records
	}
	index := make(map[stateKey]int, len(records))
	out := make([]license.StateRecord, 0, len(records))
	for _, r := range records {
		key := stateKey{r.StateCode(), r.LicenseNumber()}
		if i, ok := index[key]; ok {
			out[i] = r
			continue
		}
		index[key] = len(out)
		out = append(out, r)
	}
	return out
}
