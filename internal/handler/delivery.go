package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Md-Rabbi-95/Khalab/internal/delivery"
)

// DeliveryHandler exposes the delivery-charge table: a public charge
// lookup and the admin write side.
type DeliveryHandler struct {
	resolver *delivery.Resolver
}

func NewDeliveryHandler(resolver *delivery.Resolver) *DeliveryHandler {
	return &DeliveryHandler{resolver: resolver}
}

// ChargeFor answers the charge for a district, falling back per policy.
func (h *DeliveryHandler) ChargeFor(w http.ResponseWriter, r *http.Request) {
	district := r.URL.Query().Get("district")
	if district == "" {
		http.Error(w, "district is required", http.StatusBadRequest)
		return
	}

	charge, err := h.resolver.ChargeFor(r.Context(), district)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve delivery charge")
		http.Error(w, "failed to resolve charge", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"charge": charge})
}

type upsertChargeRequest struct {
	Location  string          `json:"location"`
	Charge    decimal.Decimal `json:"charge"`
	IsDefault bool            `json:"is_default"`
}

func (h *DeliveryHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ch := &delivery.Charge{Location: req.Location, Charge: req.Charge, IsDefault: req.IsDefault}
	if err := h.resolver.Save(r.Context(), ch); err != nil {
		if errors.Is(err, delivery.ErrLocationRequired) {
			http.Error(w, "location is required", http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("failed to save delivery charge")
		http.Error(w, "failed to save charge", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	charges, err := h.resolver.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list delivery charges")
		http.Error(w, "failed to list charges", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, charges)
}
