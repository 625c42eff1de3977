package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"freelance-marketplace/internal/domain"
	"freelance-marketplace/internal/domain/model"
	"freelance-marketplace/internal/infra/logging"
	"freelance-marketplace/internal/infra/metrics"
)

// Stripe aborts deliveries over 1MiB well before this; the cap just bounds
// what a hostile caller can make us buffer.
const webhookBodyLimit = 1 << 20

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type pageEnvelope struct {
	Data   interface{} `json:"data"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

// POST /payment/checkout-session
func (s *Server) handleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan string `json:"plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.paymentUC.StartCheckout(r.Context(), authedUserID(r.Context()), req.Plan)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPlan):
			writeError(w, http.StatusBadRequest, "Invalid plan selected")
		case errors.Is(err, domain.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			logging.With(r.Context(), s.log).Error().Err(err).Msg("start checkout failed")
			writeError(w, http.StatusInternalServerError, "Failed to create checkout session")
		}
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Checkout session created successfully",
		Data:    result,
	})
}

// POST /payment/webhook
//
// The route is signature-authenticated, not session-authenticated, and works
// on the exact raw body bytes: any re-serialization would invalidate the
// signature. A valid delivery is acknowledged with 200 *before* processing so
// the sender's response-time budget never depends on ours; processing runs in
// a detached context.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	ev, err := s.verifier.VerifyAndParse(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		metrics.IncWebhookSignatureFailure()
		logging.With(r.Context(), s.log).Warn().Err(err).Msg("webhook signature verification failed")
		writeError(w, http.StatusBadRequest, "Invalid signature")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.processTimeout)
		defer cancel()
		ctx = logging.WithEventID(ctx, ev.ID)
		s.webhookUC.Process(ctx, ev)
	}()
}

// POST /payment/verify-session
func (s *Server) handleVerifySession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	status, err := s.paymentUC.VerifySession(r.Context(), req.SessionID)
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("verify session failed")
		writeError(w, http.StatusInternalServerError, "Failed to verify session")
		return
	}

	msg := "Payment not completed"
	if status.IsPaid {
		if status.Processed {
			msg = "Payment verified successfully"
		} else {
			msg = "Payment completed, processing..."
		}
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg, Data: status})
}

// GET /payment/my-payments
func (s *Server) handleMyPayments(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	items, total, err := s.paymentUC.ListMyPayments(r.Context(), authedUserID(r.Context()), offset, limit)
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("list my payments failed")
		writeError(w, http.StatusInternalServerError, "Failed to list payments")
		return
	}
	if items == nil {
		items = []*model.PaymentIntent{}
	}
	writeJSON(w, http.StatusOK, pageEnvelope{Data: items, Total: total, Limit: limit, Offset: offset})
}

// GET /payment/history (admin)
func (s *Server) handlePaymentHistory(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	items, total, err := s.paymentUC.ListAllPayments(r.Context(), offset, limit)
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("list payment history failed")
		writeError(w, http.StatusInternalServerError, "Failed to list payments")
		return
	}
	if items == nil {
		items = []*model.PaymentIntent{}
	}
	writeJSON(w, http.StatusOK, pageEnvelope{Data: items, Total: total, Limit: limit, Offset: offset})
}

func pageParams(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
