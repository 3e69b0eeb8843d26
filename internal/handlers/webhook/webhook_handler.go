// Package webhook receives payment-gateway notifications and hands them to
// the reconciler. The gateway retries on non-2xx responses, so unmatched
// notifications return 404 rather than being swallowed.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/adiwena/netbilling/internal/domain"
	"github.com/adiwena/netbilling/internal/services/reconcile"
)

const maxPayloadBytes = 1 << 20

// Reconciler is the slice of the reconcile service the handler uses
type Reconciler interface {
	HandleWebhook(ctx context.Context, gateway string, payload []byte) (*reconcile.WebhookResult, error)
}

// Handler handles gateway notification endpoints
type Handler struct {
	reconciler Reconciler
	logger     *zap.Logger
}

// NewHandler creates a webhook handler
func NewHandler(reconciler Reconciler, logger *zap.Logger) *Handler {
	return &Handler{reconciler: reconciler, logger: logger}
}

// HandleNotification handles POST /webhooks/{gateway}
func (h *Handler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	gateway := chi.URLParam(r, "gateway")

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "failed to read payload")
		return
	}

	result, err := h.reconciler.HandleWebhook(r.Context(), gateway, payload)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTransactionNotMatched):
			h.respondError(w, http.StatusNotFound, "no matching transaction or invoice")
		case domain.IsDomainError(err, domain.ErrorCodeInvalidPayload):
			h.respondError(w, http.StatusBadRequest, "invalid notification payload")
		default:
			h.logger.Error("webhook processing failed",
				zap.String("gateway", gateway),
				zap.Error(err),
			)
			h.respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
