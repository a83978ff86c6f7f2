// Package adapter implements raw-content retrieval for the configured
// source types: rendered pages, CSV downloads, and open-data JSON APIs.
package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultFetchTimeout bounds one HTTP request when no client is supplied.
const DefaultFetchTimeout = 30 * time.Second

// maxBodySize caps how much of a response body is read. Regulator feeds are
// large but bounded; an unbounded read would let a misbehaving endpoint
// exhaust memory.
const maxBodySize = 64 << 20

func defaultClient() *http.Client {
	return &http.Client{Timeout: DefaultFetchTimeout}
}

// fetchBody performs a GET and returns the response body.
func fetchBody(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
