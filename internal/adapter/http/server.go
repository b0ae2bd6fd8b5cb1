// Package http exposes the ingestion pipeline over HTTP alongside health,
// readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wandero/activity-ingest-service/internal/domain"
	"github.com/wandero/activity-ingest-service/internal/pipeline"
	"github.com/wandero/activity-ingest-service/internal/store"
)

// Runner executes one ingestion run. Satisfied by *pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// scrapeResponse is the success body. Inserted and EventsAdded are pointers
// so the no-results body omits them while a zero-insert run still reports 0.
// EventsAdded mirrors Inserted; existing clients read either field.
type scrapeResponse struct {
	Success     bool                 `json:"success"`
	Activities  []domain.RawActivity `json:"activities"`
	Inserted    *int                 `json:"inserted,omitempty"`
	EventsAdded *int                 `json:"eventsAdded,omitempty"`
	Message     string               `json:"message"`
}

type errorResponse struct {
	Error      string               `json:"error"`
	Details    string               `json:"details"`
	Activities []domain.RawActivity `json:"activities,omitempty"`
}

// Server exposes the scrape endpoint plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	runner     Runner
	pinger     Pinger
	logger     *slog.Logger
}

// NewServer wires the router. Browser clients call the scrape endpoint
// directly, so CORS is wide open with the header set those clients send.
func NewServer(addr string, runner Runner, pinger Pinger, logger *slog.Logger) *Server {
	s := &Server{
		runner: runner,
		pinger: pinger,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
	}))

	r.Post("/scrape-activities", s.handleScrape)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second, // a run scrapes two sites and geocodes the results
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	result, err := s.runner.Run(r.Context(), req)
	if err != nil {
		s.writeRunError(w, result, err)
		return
	}

	resp := scrapeResponse{
		Success:    true,
		Activities: result.Activities,
		Message:    result.Message,
	}
	if result.Outcome == pipeline.OutcomeResults {
		resp.Inserted = &result.Inserted
		resp.EventsAdded = &result.Inserted
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeRunError maps pipeline failures onto the response contract: bad
// requests get 400, persistence failures echo the scraped activities so the
// caller keeps the data, everything else is a generic 500.
func (s *Server) writeRunError(w http.ResponseWriter, result pipeline.Result, err error) {
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid request",
			Details: err.Error(),
		})
	case errors.Is(err, store.ErrUpsertFailed):
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:      "Failed to save activities",
			Details:    err.Error(),
			Activities: result.Activities,
		})
	default:
		s.logger.Error("scrape request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Internal server error",
			Details: err.Error(),
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.pinger.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // response already committed
}
