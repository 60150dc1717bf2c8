package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Md-Rabbi-95/Khalab/internal/checkout"
	"github.com/Md-Rabbi-95/Khalab/internal/order"
)

// OrderHandler handles checkout quotes, finalization and the order
// views that follow it.
type OrderHandler struct {
	svc    order.Service
	quotes checkout.Service
}

func NewOrderHandler(svc order.Service, quotes checkout.Service) *OrderHandler {
	return &OrderHandler{svc: svc, quotes: quotes}
}

// Quote validates the checkout payload and prices the merged cart.
func (h *OrderHandler) Quote(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(w, r)
	if err != nil {
		http.Error(w, "invalid cart identity", http.StatusBadRequest)
		return
	}

	var payload checkout.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	quote, err := h.quotes.QuoteFor(r.Context(), owner, payload.District)
	if err != nil {
		log.Error().Err(err).Msg("failed to build checkout quote")
		http.Error(w, "failed to build quote", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

type finalizeRequest struct {
	Payload checkout.Payload     `json:"payload"`
	Payment order.PaymentRequest `json:"payment"`
}

// Finalize converts the cart into an order in one transaction.
func (h *OrderHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(w, r)
	if err != nil {
		http.Error(w, "invalid cart identity", http.StatusBadRequest)
		return
	}

	var req finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	conf, err := h.svc.Finalize(r.Context(), owner, &req.Payload, &req.Payment)
	if err != nil {
		var vErr *checkout.ValidationError
		switch {
		case errors.As(err, &vErr):
			writeJSON(w, http.StatusBadRequest, vErr)
		case errors.Is(err, order.ErrEmptyCart):
			http.Error(w, "nothing to order", http.StatusConflict)
		default:
			log.Error().Err(err).Msg("failed to finalize order")
			http.Error(w, "failed to place order", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, conf)
}

func writeValidationError(w http.ResponseWriter, err error) {
	var vErr *checkout.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, vErr)
		return
	}
	http.Error(w, "invalid payload", http.StatusBadRequest)
}

type completeResponse struct {
	Order    *order.Order         `json:"order"`
	Payment  *order.Payment       `json:"payment"`
	Products []order.OrderProduct `json:"products"`
}

// Complete renders the post-payment confirmation. A stale or mismatched
// link answers 404 rather than leaking whether the order exists.
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	orderNumber := r.URL.Query().Get("order_number")
	paymentID := r.URL.Query().Get("payment_id")
	if orderNumber == "" || paymentID == "" {
		http.Error(w, "order_number and payment_id are required", http.StatusBadRequest)
		return
	}

	o, p, products, err := h.svc.OrderComplete(r.Context(), orderNumber, paymentID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) || errors.Is(err, order.ErrPaymentNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("failed to load order confirmation")
		http.Error(w, "failed to load confirmation", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, completeResponse{Order: o, Payment: p, Products: products})
}

// PaymentStatus returns the reconciled label and badge for one order.
func (h *OrderHandler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")
	if orderNumber == "" {
		http.Error(w, "order number is required", http.StatusBadRequest)
		return
	}

	label, badge, err := h.svc.PaymentStatusView(r.Context(), orderNumber)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("failed to resolve payment status")
		http.Error(w, "failed to resolve payment status", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"label": label, "badge": badge})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves an order through its workflow.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), orderID, req.Status); err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			http.Error(w, "order not found", http.StatusNotFound)
		case errors.Is(err, order.ErrInvalidStatusTransition):
			http.Error(w, "status transition not allowed", http.StatusConflict)
		default:
			log.Error().Err(err).Msg("failed to update order status")
			http.Error(w, "failed to update status", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type paymentStatusRequest struct {
	Label string `json:"label"`
}

// SetPaymentStatus mirrors an operator correction onto order and
// payment.
func (h *OrderHandler) SetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req paymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Label == "" {
		http.Error(w, "label is required", http.StatusBadRequest)
		return
	}

	if err := h.svc.SetPaymentStatus(r.Context(), orderID, req.Label); err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("failed to set payment status")
		http.Error(w, "failed to set payment status", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type approvalRequest struct {
	PaymentIDs []int64 `json:"payment_ids"`
}

func (h *OrderHandler) ApprovePayments(w http.ResponseWriter, r *http.Request) {
	h.bulkApproval(w, r, true)
}

func (h *OrderHandler) RejectPayments(w http.ResponseWriter, r *http.Request) {
	h.bulkApproval(w, r, false)
}

func (h *OrderHandler) bulkApproval(w http.ResponseWriter, r *http.Request, approve bool) {
	var req approvalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.PaymentIDs) == 0 {
		http.Error(w, "payment_ids are required", http.StatusBadRequest)
		return
	}

	var updated int64
	var err error
	if approve {
		updated, err = h.svc.ApprovePayments(r.Context(), req.PaymentIDs)
	} else {
		updated, err = h.svc.RejectPayments(r.Context(), req.PaymentIDs)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to update payment approval")
		http.Error(w, "failed to update payments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}
