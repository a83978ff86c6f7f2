// Package extractor implements structured license extraction on top of a
// chat-completion provider.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smoketheglobe/license-etl/domain/license"
	"github.com/smoketheglobe/license-etl/domain/service"
	"github.com/smoketheglobe/license-etl/infrastructure/provider"
)

// systemPrompt is the extraction contract sent on every request. The model
// must return a strict JSON array; anything else is treated as a failed
// parse and quarantined with the raw response attached.
const systemPrompt = `You are a Compliance Data Parser. Extract cannabis license entities ` +
	`from the provided text and map fields to an OpenTHC-style license ` +
	`schema. Return ONLY a strict JSON array of objects, with no extra text. ` +
	`Fields per object:
  - license_number (string)
  - issuer (string; MUST be exactly one of 'CA-DCC', 'WA-LCB', 'DE-CLUB', 'TH-PLOOK')
  - legal_name (string | null)
  - dba_name (string | null)
  - license_type (string | null)
  - status (string | null)
  - address_line1 (string | null)
  - address_line2 (string | null)
  - city (string | null)
  - region (string | null)
  - postal_code (string | null)
  - country (string | null, ISO-3166 alpha-2 or alpha-3 if possible)
  - region_config (object; key/value bag for extra region-specific fields)
  - visibility (string; 'public' for regulator-sourced data, 'verified' if explicitly stated)
Use null when a field is missing. Normalize addresses as much as possible.`

// LicenseExtractor implements service.Extractor using a TextGenerator.
type LicenseExtractor struct {
	generator provider.TextGenerator
	logger    *slog.Logger
}

// NewLicenseExtractor creates a LicenseExtractor.
func NewLicenseExtractor(generator provider.TextGenerator, logger *slog.Logger) *LicenseExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LicenseExtractor{generator: generator, logger: logger}
}

// Extract sends the text to the model and decodes the response as a JSON
// array of candidate objects. The issuer is forced into every candidate so
// the model can never route a record to the wrong regulator.
func (e *LicenseExtractor) Extract(ctx context.Context, text string, issuer license.Issuer, regionHint string) ([]map[string]any, string, error) {
	userPrompt := fmt.Sprintf(
		"Region hint: %s\nAll extracted records should use issuer='%s'.\n\nText to parse (Markdown):\n%s",
		regionHint, issuer, text,
	)

	e.logger.Info("calling extraction model", "issuer", issuer.String(), "region_hint", regionHint)

	req := provider.NewChatCompletionRequest([]provider.Message{
		provider.SystemMessage(systemPrompt),
		provider.UserMessage(userPrompt),
	})

	resp, err := e.generator.ChatCompletion(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("chat completion: %w", err)
	}

	raw := strings.TrimSpace(resp.Content())

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		e.logger.Error("model returned non-JSON output", "error", err)
		return nil, raw, &service.ExtractionError{
			Message:     "model returned invalid JSON",
			RawResponse: raw,
			Details:     err.Error(),
		}
	}

	items, ok := decoded.([]any)
	if !ok {
		return nil, raw, &service.ExtractionError{
			Message:     "expected a JSON array of license objects",
			RawResponse: raw,
		}
	}

	candidates := make([]map[string]any, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, raw, &service.ExtractionError{
				Message:     fmt.Sprintf("array element %d is not an object", i),
				RawResponse: raw,
			}
		}
		obj["issuer"] = issuer.String()
		if _, ok := obj["visibility"]; !ok {
			obj["visibility"] = license.VisibilityPublic.String()
		}
		candidates = append(candidates, obj)
	}

	return candidates, raw, nil
}

var _ service.Extractor = (*LicenseExtractor)(nil)
