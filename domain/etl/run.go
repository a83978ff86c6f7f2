// Package etl provides run-level domain types: per-source pipeline states
// and the summaries reported to the orchestrator's caller.
package etl

import "sort"

// State is the lifecycle of one source's pipeline within a run.
type State string

// Pipeline states. Done and Failed are terminal; a source reaching Failed
// never transitions its siblings out of their current state.
const (
	StatePending     State = "pending"
	StateFetching    State = "fetching"
	StateNormalizing State = "normalizing"
	StateLoading     State = "loading"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Terminal reports whether the state ends the pipeline.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// String returns the state name.
func (s State) String() string { return string(s) }

// SourceResult is the outcome of one source's pipeline.
type SourceResult struct {
	sourceID      string
	state         State
	count         int
	skipped       int
	quarantined   int
	fetchFailures int
	err           error
}

// NewSourceResult creates a SourceResult.
func NewSourceResult(sourceID string, state State, count, skipped, quarantined, fetchFailures int, err error) SourceResult {
	return SourceResult{
		sourceID:      sourceID,
		state:         state,
		count:         count,
		skipped:       skipped,
		quarantined:   quarantined,
		fetchFailures: fetchFailures,
		err:           err,
	}
}

// SourceID returns the source the result belongs to.
func (r SourceResult) SourceID() string { return r.sourceID }

// State returns the terminal state the pipeline reached.
func (r SourceResult) State() State { return r.state }

// Ok reports whether the source completed without a pipeline-level error.
func (r SourceResult) Ok() bool { return r.err == nil }

// Count returns how many records were upserted.
func (r SourceResult) Count() int { return r.count }

// Skipped returns how many structured rows were dropped as feed noise.
func (r SourceResult) Skipped() int { return r.skipped }

// Quarantined returns how many inputs were routed to quarantine.
func (r SourceResult) Quarantined() int { return r.quarantined }

// FetchFailures returns how many units failed to fetch after at least one
// unit had been delivered (partial delivery).
func (r SourceResult) FetchFailures() int { return r.fetchFailures }

// Err returns the pipeline-level error, or nil.
func (r SourceResult) Err() error { return r.err }

// RunSummary aggregates per-source outcomes for one run. The run always
// completes and the summary is the sole externally visible failure signal.
type RunSummary struct {
	results map[string]SourceResult
}

// NewRunSummary creates a RunSummary from per-source results.
func NewRunSummary(results []SourceResult) RunSummary {
	m := make(map[string]SourceResult, len(results))
	for _, r := range results {
		m[r.SourceID()] = r
	}
	return RunSummary{results: m}
}

// Result returns the outcome for a source and whether it is present.
func (s RunSummary) Result(sourceID string) (SourceResult, bool) {
	r, ok := s.results[sourceID]
	return r, ok
}

// Results returns all outcomes, ordered by source id.
func (s RunSummary) Results() []SourceResult {
	out := make([]SourceResult, 0, len(s.results))
	for _, r := range s.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID() < out[j].SourceID() })
	return out
}

// Len returns the number of sources in the summary.
func (s RunSummary) Len() int { return len(s.results) }

// Ok reports whether every source completed without error.
func (s RunSummary) Ok() bool {
	for _, r := range s.results {
		if !r.Ok() {
			return false
		}
	}
	return true
}

// TotalCount returns the total records upserted across sources.
func (s RunSummary) TotalCount() int {
	total := 0
	for _, r := range s.results {
		total += r.Count()
	}
	return total
}

// ReplaySummary is the outcome of one self-healing pass over quarantine.
type ReplaySummary struct {
	attempted    int
	recovered    int
	stillFailing int
}

// NewReplaySummary creates a ReplaySummary.
func NewReplaySummary(attempted, recovered, stillFailing int) ReplaySummary {
	return ReplaySummary{
		attempted:    attempted,
		recovered:    recovered,
		stillFailing: stillFailing,
	}
}

// Attempted returns how many quarantine records were retried.
func (s ReplaySummary) Attempted() int { return s.attempted }

// Recovered returns how many retries produced at least one upserted entity.
func (s ReplaySummary) Recovered() int { return s.recovered }

// StillFailing returns how many retries failed again.
func (s ReplaySummary) StillFailing() int { return s.stillFailing }
