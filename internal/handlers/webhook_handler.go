// Package handlers exposes the pipeline's HTTP surface: webhook intake per
// provider kind and the signal read API consumed by the aggregation layer.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/shiplog-systems/shiplog-signals/internal/adapter"
	"github.com/shiplog-systems/shiplog-signals/internal/audit"
	"github.com/shiplog-systems/shiplog-signals/internal/dedup"
	"github.com/shiplog-systems/shiplog-signals/internal/logging"
	"github.com/shiplog-systems/shiplog-signals/internal/models"
	"github.com/shiplog-systems/shiplog-signals/internal/persist"
	"github.com/shiplog-systems/shiplog-signals/internal/pipeline"
	"github.com/shiplog-systems/shiplog-signals/internal/ratelimit"
)

// SignatureHeader carries the HMAC delivery signature webhook senders attach.
const SignatureHeader = "X-Hub-Signature-256"

// WebhookHandler serves webhook intake and signal reads.
type WebhookHandler struct {
	manager     *pipeline.Manager
	store       persist.SignalStore
	guard       dedup.Store
	limiter     ratelimit.RateLimiter
	signers     map[string]*audit.Signer // provider kind -> delivery signer
	maxBodySize int64
	logger      *logging.Logger
}

// Config for the webhook handler.
type Config struct {
	// Secrets maps provider kind to the shared webhook secret. Kinds
	// without a secret skip signature verification.
	Secrets map[string]string

	// MaxBodySize bounds accepted payloads in bytes.
	MaxBodySize int64
}

// NewWebhookHandler builds the handler.
func NewWebhookHandler(manager *pipeline.Manager, store persist.SignalStore, guard dedup.Store, limiter ratelimit.RateLimiter, cfg Config, logger *logging.Logger) *WebhookHandler {
	signers := make(map[string]*audit.Signer, len(cfg.Secrets))
	for kind, secret := range cfg.Secrets {
		if secret != "" {
			signers[kind] = audit.NewSigner(secret)
		}
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 1 << 20
	}
	return &WebhookHandler{
		manager:     manager,
		store:       store,
		guard:       guard,
		limiter:     limiter,
		signers:     signers,
		maxBodySize: cfg.MaxBodySize,
		logger:      logger,
	}
}

// HandleWebhook ingests one delivery:
// POST /api/v1/releases/{release}/webhooks/{provider}
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	release := r.PathValue("release")
	provider := r.PathValue("provider")
	if release == "" || provider == "" {
		h.sendError(w, http.StatusBadRequest, "release and provider are required")
		return
	}

	allowed, err := h.limiter.Allow(r.Context(), provider)
	if err != nil {
		// A broken limiter must not take down ingestion.
		h.logger.WarnContext(r.Context(), "rate limiter unavailable", logging.Error(err))
	} else if !allowed {
		h.sendError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if len(body) == 0 {
		h.sendError(w, http.StatusBadRequest, "empty payload")
		return
	}

	if signer, ok := h.signers[provider]; ok {
		if !signer.VerifyBody(body, r.Header.Get(SignatureHeader)) {
			h.logger.WarnContext(r.Context(), "delivery signature mismatch",
				logging.Provider(provider),
				logging.IP(clientIP(r)),
			)
			h.sendError(w, http.StatusUnauthorized, "invalid delivery signature")
			return
		}
	}

	result, err := h.manager.Get(release).Ingest(r.Context(), provider, body)
	if err != nil {
		switch {
		case adapter.IsValidation(err):
			h.sendError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, adapter.ErrUnknownProvider):
			h.sendError(w, http.StatusNotFound, err.Error())
		default:
			// Guard or store unavailability; the sender should redeliver.
			h.sendError(w, http.StatusServiceUnavailable, "ingestion temporarily unavailable")
		}
		return
	}

	switch result.Status {
	case pipeline.StatusDuplicate:
		// 200 on purpose: acknowledging duplicates stops retry storms.
		h.sendJSON(w, http.StatusOK, map[string]interface{}{
			"status":         "duplicate",
			"signal_version": result.SignalVersion,
		})
	default:
		h.sendJSON(w, http.StatusOK, map[string]interface{}{
			"status": "persisted",
			"signal": result.Signal,
		})
	}
}

// ListSignals serves the aggregation layer's read contract:
// GET /api/v1/releases/{release}/signals
func (h *WebhookHandler) ListSignals(w http.ResponseWriter, r *http.Request) {
	release := r.PathValue("release")
	if release == "" {
		h.sendError(w, http.StatusBadRequest, "release is required")
		return
	}

	signals, err := h.store.ListByRelease(r.Context(), release)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "signal listing failed",
			logging.Release(release),
			logging.Error(err),
		)
		h.sendError(w, http.StatusServiceUnavailable, "signal store unavailable")
		return
	}
	if signals == nil {
		signals = []*models.UnifiedSignal{}
	}

	h.sendJSON(w, http.StatusOK, map[string]interface{}{
		"release_external_id": release,
		"count":               len(signals),
		"signals":             signals,
	})
}

// Health reports liveness.
func (h *WebhookHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready reports readiness: both shared stores must be reachable.
func (h *WebhookHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.guard.Ping(r.Context()); err != nil {
		h.sendJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready", "reason": "dedup store unreachable",
		})
		return
	}
	if err := h.store.Ping(r.Context()); err != nil {
		h.sendJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready", "reason": "signal store unreachable",
		})
		return
	}
	h.sendJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *WebhookHandler) sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *WebhookHandler) sendError(w http.ResponseWriter, status int, msg string) {
	h.sendJSON(w, status, map[string]string{"status": "error", "error": msg})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
