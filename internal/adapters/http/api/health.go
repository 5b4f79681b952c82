package api

import (
	"context"
	"net/http"

	"github.com/okian/scoreboard/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports whether the backing store answers.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	checker HealthChecker
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// HandleHealth handles GET /healthz. It answers 503 when the store cannot
// hand out a working connection.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, NewKind("api.healthz", ErrMethodNotAllowed))
		return
	}
	if err := h.checker.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Code: "unavailable", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// MetricsHandler serves the service's Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
