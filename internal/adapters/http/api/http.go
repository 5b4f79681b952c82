// Package api exposes the leaderboard over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/pkg/logger"
)

// retryAfterSeconds is sent with 503 responses caused by pool exhaustion.
const retryAfterSeconds = 1

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Submit(ctx context.Context, name string, score int64) error
	TopN(ctx context.Context, n int) ([]Entry, error)
	DefaultLimit() int
	HealthChecker
	StatsProvider
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = model.RankedEntry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	scoresHandler *ScoresHandler

	corsOrigin string
	logger     logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		corsOrigin: "*",
	}
	cfg := serverConfig{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(s, &cfg)
	}
	if s.logger == nil {
		s.logger = logger.Named("http")
	}
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(deps)
	s.scoresHandler = NewScoresHandler(deps, cfg.maxLimit, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/scores", s.wrap("scores", s.scoresHandler))
	mux.Handle("/healthz", s.wrap("healthz", http.HandlerFunc(s.healthHandler.HandleHealth)))
	mux.Handle("/stats", s.wrap("stats", http.HandlerFunc(s.statsHandler.HandleStats)))
	mux.Handle("/metrics", s.wrap("metrics", MetricsHandler()))
}

func (s *Server) wrap(endpoint string, h http.Handler) http.Handler {
	return RequestIDMiddleware(CORSMiddleware(s.corsOrigin, MetricsMiddleware(h, endpoint)))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError classifies err and writes the matching status. Internal
// errors are not echoed to the client.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if status != http.StatusInternalServerError && err != nil {
		msg = err.Error()
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
