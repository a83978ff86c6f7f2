package adapter

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/smoketheglobe/license-etl/domain/source"
)

// CSVAdapter downloads a CSV endpoint and yields one header-mapped row per
// unit. Headers are trimmed; rows with a mismatched field count are yielded
// as *FetchError and skipped.
type CSVAdapter struct {
	client *http.Client
}

// NewCSVAdapter creates a CSVAdapter. A nil client gets the default with a
// bounded timeout.
func NewCSVAdapter(client *http.Client) *CSVAdapter {
	if client == nil {
		client = defaultClient()
	}
	return &CSVAdapter{client: client}
}

// Fetch downloads the endpoint and yields its rows. A download failure
// before any row is delivered ends the sequence with a single *FetchError.
func (a *CSVAdapter) Fetch(ctx context.Context, cfg source.Config) source.Batch {
	return func(yield func(source.RawUnit, error) bool) {
		body, err := fetchBody(ctx, a.client, cfg.Endpoint())
		if err != nil {
			yield(source.RawUnit{}, &source.FetchError{SourceID: cfg.ID(), Unit: cfg.Endpoint(), Err: err})
			return
		}

		reader := csv.NewReader(bytes.NewReader(body))
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true

		header, err := reader.Read()
		if err != nil {
			yield(source.RawUnit{}, &source.FetchError{SourceID: cfg.ID(), Unit: cfg.Endpoint(), Err: err})
			return
		}
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}

		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if !yield(source.RawUnit{}, &source.FetchError{SourceID: cfg.ID(), Unit: cfg.Endpoint(), Err: err}) {
					return
				}
				continue
			}

			row := make(map[string]string, len(header))
			for i, col := range header {
				if i < len(record) {
					row[col] = strings.TrimSpace(record[i])
				}
			}
			if !yield(source.NewRowUnit(cfg.Endpoint(), row), nil) {
				return
			}
		}
	}
}

var _ source.Adapter = (*CSVAdapter)(nil)
