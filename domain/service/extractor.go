// Package service defines the collaborator interfaces the pipeline consumes
// but does not implement: natural-language extraction and page rendering.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/smoketheglobe/license-etl/domain/license"
)

// ErrNoExtractor indicates extraction was needed but no extractor is
// configured. Deployments that only ingest direct feeds run without one.
var ErrNoExtractor = errors.New("no extractor configured")

// Extractor turns unstructured text into candidate license objects.
// Implementations must return a strict sequence of candidates; each candidate
// is validated independently by the normalizer, so one malformed candidate
// never invalidates its siblings.
//
// raw is the collaborator's verbatim response, preserved for quarantine and
// replay diagnosis even when extraction fails.
type Extractor interface {
	Extract(ctx context.Context, text string, issuer license.Issuer, regionHint string) (candidates []map[string]any, raw string, err error)
}

// ExtractionError reports unusable extractor output: non-JSON, or JSON that
// is not an array of objects. The full raw response is preserved.
type ExtractionError struct {
	Message     string
	RawResponse string
	Details     string
}

// Error implements error.
func (e *ExtractionError) Error() string {
	if e.Details != "" && e.Details != e.Message {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// DetailMap returns the structured form stored in quarantine records.
func (e *ExtractionError) DetailMap() map[string]any {
	details := e.Details
	if details == "" {
		details = e.Message
	}
	return map[string]any{
		"id":           uuid.NewString(),
		"message":      e.Message,
		"details":      details,
		"raw_response": e.RawResponse,
	}
}

// Renderer fetches a URL and returns its content as Markdown. Browser
// automation lives behind this boundary and is out of scope for the
// pipeline; implementations must enforce a bounded per-request timeout.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}
