package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shiplog-systems/shiplog-signals/internal/handlers"
	"github.com/shiplog-systems/shiplog-signals/internal/middleware"
)

// NewRouter constructs a ServeMux with the signal pipeline routes registered.
func NewRouter(h *handlers.WebhookHandler) http.Handler {
	mux := http.NewServeMux()

	// Webhook intake, one route per delivery
	mux.HandleFunc("POST /api/v1/releases/{release}/webhooks/{provider}", h.HandleWebhook)

	// Read surface for the aggregation layer
	mux.HandleFunc("GET /api/v1/releases/{release}/signals", h.ListSignals)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
