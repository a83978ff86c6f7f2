package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	licenseetl "github.com/smoketheglobe/license-etl"
	"github.com/smoketheglobe/license-etl/domain/license"
	"github.com/smoketheglobe/license-etl/domain/source"
)

func newTestServer(t *testing.T) (*Server, *licenseetl.App) {
	t.Helper()
	app, err := licenseetl.New(
		licenseetl.WithDatabaseURL("sqlite:///:memory:"),
		licenseetl.WithSources([]source.Config{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return NewServer("127.0.0.1:0", app), app
}

func TestServer_Healthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_StartRunWithNoSources(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Ok      bool  `json:"ok"`
		Total   int   `json:"total"`
		Sources []any `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Ok)
	assert.Zero(t, body.Total)
	assert.Empty(t, body.Sources)
}

func TestServer_ListQuarantine(t *testing.T) {
	srv, app := newTestServer(t)
	ctx := context.Background()

	rec1 := license.NewQuarantineRecord("ca_dcc", "u1", "raw", "boom", map[string]any{"reason": "x"})
	rec2 := license.NewQuarantineRecord("wa_lcb", "u2", "raw", "boom", nil)
	require.NoError(t, app.Quarantine.Record(ctx, rec1))
	require.NoError(t, app.Quarantine.Record(ctx, rec2))

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quarantine?source=ca_dcc", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Records []struct {
			ID           int64          `json:"id"`
			Source       string         `json:"source"`
			ErrorMessage string         `json:"error_message"`
			ErrorDetails map[string]any `json:"error_details"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Records, 1)
	assert.Equal(t, "ca_dcc", body.Records[0].Source)
	assert.Equal(t, "boom", body.Records[0].ErrorMessage)
	assert.Equal(t, "x", body.Records[0].ErrorDetails["reason"])
}

func TestServer_ListQuarantineBadLimit(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quarantine?limit=nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_StartReplayDefaults(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/replays", strings.NewReader(`{"limit": 5}`))
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Attempted    int `json:"attempted"`
		Recovered    int `json:"recovered"`
		StillFailing int `json:"still_failing"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Zero(t, body.Attempted, "nothing quarantined yet")
}
