package source

import (
	"context"
	"fmt"
	"iter"
)

// RawUnit is one unit of raw content delivered by an adapter: either a text
// block (rendered pages) or a structured row (CSV/JSON feeds).
type RawUnit struct {
	url  string
	text string
	row  map[string]string
}

// NewTextUnit creates a RawUnit carrying a text block.
func NewTextUnit(url, text string) RawUnit {
	return RawUnit{url: url, text: text}
}

// NewRowUnit creates a RawUnit carrying a structured row.
func NewRowUnit(url string, row map[string]string) RawUnit {
	cp := make(map[string]string, len(row))
	for k, v := range row {
		cp[k] = v
	}
	return RawUnit{url: url, row: cp}
}

// URL returns where the unit was fetched from.
func (u RawUnit) URL() string { return u.url }

// Text returns the text block, or empty for row units.
func (u RawUnit) Text() string { return u.text }

// IsText reports whether the unit carries a text block.
func (u RawUnit) IsText() bool { return u.row == nil }

// Row returns a copy of the structured row, or nil for text units.
func (u RawUnit) Row() map[string]string {
	if u.row == nil {
		return nil
	}
	cp := make(map[string]string, len(u.row))
	for k, v := range u.row {
		cp[k] = v
	}
	return cp
}

// Batch is a lazy, finite, non-restartable sequence of raw units. A failed
// unit is yielded as a *FetchError without ending the sequence, so units
// fetched before the failure are never discarded.
type Batch = iter.Seq2[RawUnit, error]

// Adapter retrieves raw content for a configured source. Implementations
// must bound every network operation with a timeout and must never abort
// the sequence because one unit failed.
type Adapter interface {
	Fetch(ctx context.Context, cfg Config) Batch
}

// FetchError reports the inability to retrieve one unit of raw content.
// It is isolated to that unit: sibling units already fetched remain valid.
type FetchError struct {
	SourceID string
	Unit     string
	Err      error
}

// Error implements error.
func (e *FetchError) Error() string {
	if e.Unit != "" {
		return fmt.Sprintf("fetch %s (%s): %v", e.SourceID, e.Unit, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.SourceID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error { return e.Err }
