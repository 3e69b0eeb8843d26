// Package checkout exposes online payment initiation over HTTP.
package checkout

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adiwena/netbilling/internal/domain"
	"github.com/adiwena/netbilling/internal/services/checkout"
)

// Handler handles checkout endpoints
type Handler struct {
	service *checkout.Service
	logger  *zap.Logger
}

// NewHandler creates a checkout handler
func NewHandler(service *checkout.Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// CheckoutResponse is returned to the caller initiating a payment
type CheckoutResponse struct {
	OrderID     string `json:"order_id"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// InitiatePayment handles POST /invoices/{id}/checkout
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	result, err := h.service.InitiateOnlinePayment(r.Context(), invoiceID)
	if err != nil {
		if domain.IsNotFoundError(err) {
			h.respondError(w, http.StatusNotFound, "invoice not found")
			return
		}
		h.logger.Error("checkout initiation failed",
			zap.String("invoice_id", invoiceID.String()),
			zap.Error(err),
		)
		h.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(CheckoutResponse{
		OrderID:     result.OrderID,
		Token:       result.Token,
		RedirectURL: result.RedirectURL,
	}); err != nil {
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
