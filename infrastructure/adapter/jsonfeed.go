package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/smoketheglobe/license-etl/domain/source"
)

// JSONAdapter fetches an open-data JSON API and yields one row per object.
// Both a bare array and a {"results": [...]} envelope are accepted; values
// are flattened to strings since downstream mapping is column-oriented.
type JSONAdapter struct {
	client *http.Client
}

// NewJSONAdapter creates a JSONAdapter. A nil client gets the default with
// a bounded timeout.
func NewJSONAdapter(client *http.Client) *JSONAdapter {
	if client == nil {
		client = defaultClient()
	}
	return &JSONAdapter{client: client}
}

// Fetch downloads the endpoint and yields its objects as rows.
func (a *JSONAdapter) Fetch(ctx context.Context, cfg source.Config) source.Batch {
	return func(yield func(source.RawUnit, error) bool) {
		body, err := fetchBody(ctx, a.client, cfg.Endpoint())
		if err != nil {
			yield(source.RawUnit{}, &source.FetchError{SourceID: cfg.ID(), Unit: cfg.Endpoint(), Err: err})
			return
		}

		items, err := decodeFeed(body)
		if err != nil {
			yield(source.RawUnit{}, &source.FetchError{SourceID: cfg.ID(), Unit: cfg.Endpoint(), Err: err})
			return
		}

		for _, item := range items {
			row := make(map[string]string, len(item))
			for k, v := range item {
				row[k] = stringifyValue(v)
			}
			if !yield(source.NewRowUnit(cfg.Endpoint(), row), nil) {
				return
			}
		}
	}
}

func decodeFeed(body []byte) ([]map[string]any, error) {
	// A literal null unmarshals into a nil slice without error; only a real
	// array counts, otherwise the envelope path decides.
	var items []map[string]any
	if err := json.Unmarshal(body, &items); err == nil && items != nil {
		return items, nil
	}

	var envelope struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	if envelope.Results == nil {
		return nil, fmt.Errorf("decode feed: expected array or results envelope")
	}
	return envelope.Results, nil
}

func stringifyValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

var _ source.Adapter = (*JSONAdapter)(nil)
