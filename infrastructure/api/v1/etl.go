// Package v1 implements the v1 admin API endpoints.
package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	licenseetl "github.com/smoketheglobe/license-etl"
	appservice "github.com/smoketheglobe/license-etl/application/service"
	"github.com/smoketheglobe/license-etl/domain/etl"
	"github.com/smoketheglobe/license-etl/domain/license"
	"github.com/smoketheglobe/license-etl/domain/store"
)

// defaultQuarantineLimit caps a quarantine listing when the caller does not
// pass one.
const defaultQuarantineLimit = 50

var errInvalidLimit = errors.New("limit must be a positive integer")

// Router handles the v1 ETL endpoints.
type Router struct {
	app    *licenseetl.App
	logger *slog.Logger
}

// NewRouter creates a Router.
func NewRouter(app *licenseetl.App) *Router {
	return &Router{
		app:    app,
		logger: app.Logger().Slog(),
	}
}

// Routes returns the chi router for the v1 endpoints.
func (r *Router) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/runs", r.StartRun)
	router.Post("/replays", r.StartReplay)
	router.Get("/quarantine", r.ListQuarantine)

	return router
}

// sourceResultDTO is the JSON shape of one source outcome.
type sourceResultDTO struct {
	Source        string `json:"source"`
	State         string `json:"state"`
	Count         int    `json:"count"`
	Skipped       int    `json:"skipped"`
	Quarantined   int    `json:"quarantined"`
	FetchFailures int    `json:"fetch_failures"`
	Error         string `json:"error,omitempty"`
}

// runResponseDTO is the JSON shape of a completed run.
type runResponseDTO struct {
	Ok      bool              `json:"ok"`
	Total   int               `json:"total"`
	Sources []sourceResultDTO `json:"sources"`
}

// StartRun handles POST /api/v1/runs. The run executes synchronously; the
// response is the full summary.
func (r *Router) StartRun(w http.ResponseWriter, req *http.Request) {
	summary, err := r.app.Pipeline.Run(req.Context(), r.app.Sources())
	if err != nil {
		r.writeError(w, http.StatusInternalServerError, err)
		return
	}
	r.writeJSON(w, http.StatusOK, runResponse(summary))
}

// replayRequestDTO is the JSON body of POST /api/v1/replays. All fields are
// optional; absent fields take the configured defaults.
type replayRequestDTO struct {
	Source        string `json:"source"`
	MinAgeSeconds *int   `json:"min_age_seconds"`
	Limit         *int   `json:"limit"`
}

// replayResponseDTO is the JSON shape of a completed replay pass.
type replayResponseDTO struct {
	Attempted    int `json:"attempted"`
	Recovered    int `json:"recovered"`
	StillFailing int `json:"still_failing"`
}

// StartReplay handles POST /api/v1/replays.
func (r *Router) StartReplay(w http.ResponseWriter, req *http.Request) {
	var body replayRequestDTO
	if req.Body != nil && req.ContentLength != 0 {
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			r.writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	cfg := r.app.Config()
	params := appservice.ReplayParams{
		Source: body.Source,
		MinAge: cfg.ReplayMinAge(),
		Limit:  cfg.ReplayLimit(),
	}
	if body.MinAgeSeconds != nil {
		params.MinAge = time.Duration(*body.MinAgeSeconds) * time.Second
	}
	if body.Limit != nil {
		params.Limit = *body.Limit
	}

	summary, err := r.app.Replay.Run(req.Context(), r.app.Sources(), params)
	if err != nil {
		r.writeError(w, http.StatusInternalServerError, err)
		return
	}
	r.writeJSON(w, http.StatusOK, replayResponseDTO{
		Attempted:    summary.Attempted(),
		Recovered:    summary.Recovered(),
		StillFailing: summary.StillFailing(),
	})
}

// quarantineRecordDTO is the JSON shape of one quarantine record.
type quarantineRecordDTO struct {
	ID           int64          `json:"id"`
	Source       string         `json:"source"`
	URL          string         `json:"url"`
	ErrorMessage string         `json:"error_message"`
	ErrorDetails map[string]any `json:"error_details,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ListQuarantine handles GET /api/v1/quarantine. Supports the query
// parameters source and limit.
func (r *Router) ListQuarantine(w http.ResponseWriter, req *http.Request) {
	options := []store.Option{}

	if src := req.URL.Query().Get("source"); src != "" {
		options = append(options, license.WithSource(src))
	}

	limit := defaultQuarantineLimit
	if raw := req.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			r.writeError(w, http.StatusBadRequest, errInvalidLimit)
			return
		}
		limit = n
	}
	options = append(options, store.WithLimit(limit))

	records, err := r.app.Quarantine.List(req.Context(), options...)
	if err != nil {
		r.writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]quarantineRecordDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, quarantineRecordDTO{
			ID:           rec.ID(),
			Source:       rec.Source(),
			URL:          rec.URL(),
			ErrorMessage: rec.ErrorMessage(),
			ErrorDetails: rec.ErrorDetails(),
			CreatedAt:    rec.CreatedAt(),
		})
	}
	r.writeJSON(w, http.StatusOK, map[string]any{"records": out})
}

func runResponse(summary etl.RunSummary) runResponseDTO {
	resp := runResponseDTO{
		Ok:      summary.Ok(),
		Total:   summary.TotalCount(),
		Sources: make([]sourceResultDTO, 0, summary.Len()),
	}
	for _, result := range summary.Results() {
		dto := sourceResultDTO{
			Source:        result.SourceID(),
			State:         result.State().String(),
			Count:         result.Count(),
			Skipped:       result.Skipped(),
			Quarantined:   result.Quarantined(),
			FetchFailures: result.FetchFailures(),
		}
		if result.Err() != nil {
			dto.Error = result.Err().Error()
		}
		resp.Sources = append(resp.Sources, dto)
	}
	return resp
}

func (r *Router) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		r.logger.Error("write response failed", "error", err)
	}
}

func (r *Router) writeError(w http.ResponseWriter, status int, err error) {
	r.logger.Error("request failed", "status", status, "error", err)
	r.writeJSON(w, status, map[string]string{"error": err.Error()})
}
