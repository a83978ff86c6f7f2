package adapter

import (
	"context"
	"net/http"

	"github.com/smoketheglobe/license-etl/domain/service"
)

// HTTPRenderer is a plain-HTTP service.Renderer: it fetches a URL and
// returns the body verbatim. Listings that need a real browser sit behind
// the same interface with a different implementation.
type HTTPRenderer struct {
	client *http.Client
}

// NewHTTPRenderer creates an HTTPRenderer. A nil client gets the default
// with a bounded timeout.
func NewHTTPRenderer(client *http.Client) *HTTPRenderer {
	if client == nil {
		client = defaultClient()
	}
	return &HTTPRenderer{client: client}
}

// Render fetches the URL and returns its body as text.
func (r *HTTPRenderer) Render(ctx context.Context, url string) (string, error) {
	body, err := fetchBody(ctx, r.client, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

var _ service.Renderer = (*HTTPRenderer)(nil)
