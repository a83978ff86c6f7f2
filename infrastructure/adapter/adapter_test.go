package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smoketheglobe/license-etl/domain/source"
)

func collect(t *testing.T, batch source.Batch) (units []source.RawUnit, failures []error) {
	t.Helper()
	for unit, err := range batch {
		if err != nil {
			failures = append(failures, err)
			continue
		}
		units = append(units, unit)
	}
	return units, failures
}

func TestCSVAdapter_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "License Number, Business Name ,Status\nWA-1,Acme,active\nWA-2,Beta,expired\n")
	}))
	defer srv.Close()

	cfg := source.NewConfig("wa_lcb", "US-WA", srv.URL, source.TypeCSV, source.PathExtraction)
	units, failures := collect(t, NewCSVAdapter(nil).Fetch(context.Background(), cfg))

	require.Empty(t, failures)
	require.Len(t, units, 2)
	assert.False(t, units[0].IsText())

	row := units[0].Row()
	assert.Equal(t, "WA-1", row["License Number"], "headers are trimmed")
	assert.Equal(t, "Acme", row["Business Name"])
	assert.Equal(t, "active", row["Status"])
}

func TestCSVAdapter_ShortRowsKeepMappedColumns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "a,b,c\n1,2\n")
	}))
	defer srv.Close()

	cfg := source.NewConfig("s", "US-WA", srv.URL, source.TypeCSV, source.PathExtraction)
	units, failures := collect(t, NewCSVAdapter(nil).Fetch(context.Background(), cfg))

	require.Empty(t, failures)
	require.Len(t, units, 1)
	row := units[0].Row()
	assert.Equal(t, "1", row["a"])
	_, ok := row["c"]
	assert.False(t, ok)
}

func TestCSVAdapter_DownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := source.NewConfig("s", "US-WA", srv.URL, source.TypeCSV, source.PathExtraction)
	units, failures := collect(t, NewCSVAdapter(nil).Fetch(context.Background(), cfg))

	assert.Empty(t, units)
	require.Len(t, failures, 1)

	var fetchErr *source.FetchError
	require.ErrorAs(t, failures[0], &fetchErr)
	assert.Equal(t, "s", fetchErr.SourceID)
}

func TestJSONAdapter_BareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"license_number":"OK-1","fee":150.5,"active":true,"note":null}]`)
	}))
	defer srv.Close()

	cfg := source.NewConfig("ok", "US-OK", srv.URL, source.TypeJSON, source.PathDirect)
	units, failures := collect(t, NewJSONAdapter(nil).Fetch(context.Background(), cfg))

	require.Empty(t, failures)
	require.Len(t, units, 1)
	row := units[0].Row()
	assert.Equal(t, "OK-1", row["license_number"])
	assert.Equal(t, "150.5", row["fee"])
	assert.Equal(t, "true", row["active"])
	assert.Equal(t, "", row["note"])
}

func TestJSONAdapter_ResultsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"id":"1"},{"id":"2"}]}`)
	}))
	defer srv.Close()

	cfg := source.NewConfig("nm", "US-NM", srv.URL, source.TypeJSON, source.PathDirect)
	units, failures := collect(t, NewJSONAdapter(nil).Fetch(context.Background(), cfg))

	require.Empty(t, failures)
	assert.Len(t, units, 2)
}

func TestJSONAdapter_NullBodyIsFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `null`)
	}))
	defer srv.Close()

	cfg := source.NewConfig("nm", "US-NM", srv.URL, source.TypeJSON, source.PathDirect)
	units, failures := collect(t, NewJSONAdapter(nil).Fetch(context.Background(), cfg))

	assert.Empty(t, units)
	require.Len(t, failures, 1, "a null feed must not pass as an empty one")

	var fetchErr *source.FetchError
	require.ErrorAs(t, failures[0], &fetchErr)
}

func TestJSONAdapter_EmptyArrayYieldsNoRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	cfg := source.NewConfig("nm", "US-NM", srv.URL, source.TypeJSON, source.PathDirect)
	units, failures := collect(t, NewJSONAdapter(nil).Fetch(context.Background(), cfg))

	assert.Empty(t, units)
	assert.Empty(t, failures, "an explicitly empty feed is a valid fetch")
}

func TestJSONAdapter_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"not":"a feed"}`)
	}))
	defer srv.Close()

	cfg := source.NewConfig("bad", "US-NM", srv.URL, source.TypeJSON, source.PathDirect)
	units, failures := collect(t, NewJSONAdapter(nil).Fetch(context.Background(), cfg))

	assert.Empty(t, units)
	assert.Len(t, failures, 1)
}

// fakeRenderer renders deterministic content, failing on request for
// specific pages.
type fakeRenderer struct {
	failOn map[int]bool
	calls  int
}

func (f *fakeRenderer) Render(_ context.Context, url string) (string, error) {
	f.calls++
	if f.failOn[f.calls] {
		return "", errors.New("render timeout")
	}
	return "# Listing\ncontent for " + url, nil
}

func TestPageAdapter_Pagination(t *testing.T) {
	renderer := &fakeRenderer{}
	cfg := source.NewConfig("ca_dcc", "US-CA", "https://example.test/search", source.TypePage, source.PathExtraction).
		WithMaxPages(3)

	units, failures := collect(t, NewPageAdapter(renderer).Fetch(context.Background(), cfg))

	require.Empty(t, failures)
	require.Len(t, units, 3)
	assert.True(t, units[0].IsText())
	assert.Equal(t, "https://example.test/search", units[0].URL())
	assert.Equal(t, "https://example.test/search?page=2", units[1].URL())
	assert.Equal(t, "https://example.test/search?page=3", units[2].URL())
}

func TestPageAdapter_MidSequenceFailureKeepsLaterPages(t *testing.T) {
	renderer := &fakeRenderer{failOn: map[int]bool{2: true}}
	cfg := source.NewConfig("ca_dcc", "US-CA", "https://example.test/search", source.TypePage, source.PathExtraction).
		WithMaxPages(3)

	units, failures := collect(t, NewPageAdapter(renderer).Fetch(context.Background(), cfg))

	require.Len(t, failures, 1, "the failed page is reported")
	require.Len(t, units, 2, "pages after the failure are still fetched")

	var fetchErr *source.FetchError
	require.ErrorAs(t, failures[0], &fetchErr)
	assert.Contains(t, fetchErr.Unit, "page=2")
}
