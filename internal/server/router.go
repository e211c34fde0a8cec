// Package server exposes the collector's operational HTTP surface: liveness,
// readiness, a status report and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dexrelay-systems/dexrelay/internal/collector"
	"github.com/dexrelay-systems/dexrelay/internal/logging"
)

// healthTimeout bounds the dependency probes behind /readyz.
const healthTimeout = 5 * time.Second

// Handler serves the operational endpoints for one orchestrator.
type Handler struct {
	orch *collector.Orchestrator
	log  *logging.Logger
}

// NewHandler creates the handler.
func NewHandler(orch *collector.Orchestrator, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.Default()
	}
	return &Handler{orch: orch, log: log}
}

// NewRouter constructs a ServeMux with the collector routes registered.
// gatherer selects the metrics registry; pass nil for the default.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)

	// Pipeline status
	mux.HandleFunc("/status", h.Status)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mux
}

// Health is the liveness probe: the process is up and serving.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready is the readiness probe: every upstream source and the publisher must
// answer a health check.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.orch.HealthCheck(ctx); err != nil {
		h.log.Warn("readiness check failed", logging.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Status reports the pipeline state and counter totals.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.Status())
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
