// Package cron exposes the batch jobs as authenticated HTTP endpoints so an
// external scheduler (or an operator with curl) can trigger them manually in
// addition to the in-process schedule.
package cron

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/adiwena/netbilling/internal/domain"
	"github.com/adiwena/netbilling/internal/services/invoice"
	"github.com/adiwena/netbilling/internal/services/sweep"
)

// Sweeper is the slice of the sweep service the handler uses
type Sweeper interface {
	RunOverdueSweep(ctx context.Context) (sweep.OverdueResult, error)
	RunRestorationSweep(ctx context.Context) (sweep.RestorationResult, error)
}

// Generator is the slice of the invoice generator the handler uses
type Generator interface {
	GenerateMonthly(ctx context.Context, now time.Time) (invoice.GenerationResult, error)
	GenerateForBillingDay(ctx context.Context, now time.Time) (invoice.GenerationResult, error)
}

// SweepHandler handles cron trigger endpoints for the batch jobs
type SweepHandler struct {
	sweeper    Sweeper
	generator  Generator
	logger     *zap.Logger
	cronSecret string // Secret token for authenticating cron requests
}

// NewSweepHandler creates a new cron trigger handler
func NewSweepHandler(sweeper Sweeper, generator Generator, logger *zap.Logger, cronSecret string) *SweepHandler {
	return &SweepHandler{
		sweeper:    sweeper,
		generator:  generator,
		logger:     logger,
		cronSecret: cronSecret,
	}
}

// GenerateRequest represents the request body for manual invoice generation
type GenerateRequest struct {
	AsOfDate *string `json:"as_of_date"` // Optional: ISO date string, defaults to today
	Mode     string  `json:"mode"`       // "monthly" (default) or "billing-day"
}

// OverdueSweep handles POST /cron/overdue-sweep
func (h *SweepHandler) OverdueSweep(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	result, err := h.sweeper.RunOverdueSweep(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrSweepAlreadyRunning) {
			h.respondError(w, http.StatusConflict, "overdue sweep already running")
			return
		}
		h.logger.Error("overdue sweep failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.respond(w, result.Errors == 0, result)
}

// RestorationSweep handles POST /cron/restoration-sweep
func (h *SweepHandler) RestorationSweep(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	result, err := h.sweeper.RunRestorationSweep(r.Context())
	if err != nil {
		h.logger.Error("restoration sweep failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.respond(w, result.Errors == 0, result)
}

// GenerateInvoices handles POST /cron/generate-invoices
func (h *SweepHandler) GenerateInvoices(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	var req GenerateRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Warn("failed to parse request body", zap.Error(err))
			// Continue with defaults if parsing fails
		}
	}

	asOf := time.Now()
	if req.AsOfDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.AsOfDate)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid as_of_date format, expected YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	var result invoice.GenerationResult
	var err error
	switch req.Mode {
	case "", "monthly":
		result, err = h.generator.GenerateMonthly(r.Context(), asOf)
	case "billing-day":
		result, err = h.generator.GenerateForBillingDay(r.Context(), asOf)
	default:
		h.respondError(w, http.StatusBadRequest, "mode must be monthly or billing-day")
		return
	}
	if err != nil {
		h.logger.Error("invoice generation failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.respond(w, result.Errors == 0, result)
}

// authorize verifies the cron request and writes the error response itself
func (h *SweepHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	if h.authenticateRequest(r) {
		return true
	}
	h.logger.Warn("unauthorized cron request",
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("path", r.URL.Path),
	)
	h.respondError(w, http.StatusUnauthorized, "unauthorized")
	return false
}

// authenticateRequest verifies the cron request is authorized
func (h *SweepHandler) authenticateRequest(r *http.Request) bool {
	// Check X-Cron-Secret header
	if secret := r.Header.Get("X-Cron-Secret"); secret != "" && secret == h.cronSecret {
		return true
	}

	// Check Authorization header (Bearer token)
	if r.Header.Get("Authorization") == "Bearer "+h.cronSecret {
		return true
	}

	return false
}

func (h *SweepHandler) respond(w http.ResponseWriter, success bool, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if success {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusPartialContent) // 206 indicates partial success
	}

	resp := map[string]interface{}{
		"success":      success,
		"result":       result,
		"processed_at": time.Now().Format(time.RFC3339),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// respondError sends an error response
func (h *SweepHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := map[string]interface{}{
		"success": false,
		"error":   message,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode error response", zap.Error(err))
	}
}
