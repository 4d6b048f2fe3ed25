// Package httpapi serves throughput reports over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"agile-analytics/internal/config"
	"agile-analytics/internal/pipeline"
	"agile-analytics/internal/report"
	"agile-analytics/internal/ticket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 8 << 20

// Options configures the HTTP server.
type Options struct {
	Addr              string
	AllowedOrigins    []string
	RequestsPerSecond float64
	Burst             int
	// TrustProxy rate limits by X-Forwarded-For / X-Real-IP. Leave off unless
	// the API sits behind a proxy that overwrites those headers.
	TrustProxy bool
	Version           string
	// Sink stores reports that name a sheet. Nil rejects such requests.
	Sink pipeline.Sink
	Now  func() time.Time
}

// ThroughputRequest is the body of POST /api/v1/reports/throughput.
type ThroughputRequest struct {
	Title     string                  `json:"title"`
	Period    string                  `json:"period"`
	StartDate string                  `json:"start_date"`
	EndDate   string                  `json:"end_date"`
	Sheet     string                  `json:"sheet,omitempty"`
	Tickets   []ticket.AnalyzedTicket `json:"tickets"`
}

// ThroughputResponse is the report returned to the caller.
type ThroughputResponse struct {
	Summary report.Summary  `json:"summary"`
	Table   [][]string      `json:"table"`
	Buckets []report.Bucket `json:"buckets"`
	Total   int             `json:"total"`
	RunID   string          `json:"run_id,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewRouter builds the chi router with middleware and routes.
func NewRouter(opts Options) http.Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 10
	}
	if opts.Burst <= 0 {
		opts.Burst = 20
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	h := &handler{sink: opts.Sink, now: opts.Now, version: opts.Version, started: time.Now()}
	limiter := NewRateLimiter(opts.RequestsPerSecond, opts.Burst, 3*time.Minute)
	limiter.TrustProxy = opts.TrustProxy

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger)
	r.Use(Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Post("/reports/throughput", h.throughput)
		r.Get("/periods", h.periods)
	})
	return r
}

// ListenAndServe runs the API until ctx is canceled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, opts Options) error {
	srv := &http.Server{
		Addr:         opts.Addr,
		Handler:      NewRouter(opts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", opts.Addr).Msg("HTTP API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type handler struct {
	sink    pipeline.Sink
	now     func() time.Time
	version string
	started time.Time
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *handler) periods(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, report.Periods())
}

func (h *handler) throughput(w http.ResponseWriter, r *http.Request) {
	var req ThroughputRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	def, err := pipeline.DefinitionFrom(config.ReportConfig{
		Title:     req.Title,
		Period:    req.Period,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Sheet:     req.Sheet,
	}, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REPORT", err.Error())
		return
	}
	if def.Sheet != "" && h.sink == nil {
		writeError(w, http.StatusBadRequest, "NO_SHEET_STORE", "sheet storage is not configured")
		return
	}

	results, err := pipeline.RunAll(r.Context(), []pipeline.Definition{def}, req.Tickets, h.sink)
	if err != nil {
		status, code := classify(err)
		writeError(w, status, code, err.Error())
		return
	}
	res := results[0]

	writeJSON(w, http.StatusOK, ThroughputResponse{
		Summary: res.Report.Summary,
		Table:   res.Report.Strings(),
		Buckets: res.Report.Buckets(),
		Total:   res.Report.Total(),
		RunID:   res.RunID,
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, report.ErrDateNotSet), errors.Is(err, report.ErrUnknownPeriod):
		return http.StatusBadRequest, "INVALID_REPORT"
	case errors.Is(err, report.ErrMalformedTicket):
		return http.StatusUnprocessableEntity, "MALFORMED_TICKET"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}
