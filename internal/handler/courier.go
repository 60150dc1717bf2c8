package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Md-Rabbi-95/Khalab/internal/courier"
	"github.com/Md-Rabbi-95/Khalab/internal/order"
)

// CourierHandler drives parcel bookings against the courier API.
type CourierHandler struct {
	svc courier.Service
}

func NewCourierHandler(svc courier.Service) *CourierHandler {
	return &CourierHandler{svc: svc}
}

// CreateParcel books a parcel for a finalized order. A booking the
// courier refused still answers 201 with the failed parcel row; the
// error message travels inside it.
func (h *CourierHandler) CreateParcel(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var opts courier.CreateOptions
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	parcel, err := h.svc.CreateForOrder(r.Context(), orderID, opts)
	if err != nil {
		switch {
		case errors.Is(err, courier.ErrParcelExists):
			http.Error(w, "parcel already exists for this order", http.StatusConflict)
		case errors.Is(err, order.ErrOrderNotFound):
			http.Error(w, "order not found", http.StatusNotFound)
		default:
			log.Error().Err(err).Msg("failed to create parcel")
			http.Error(w, "failed to create parcel", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, parcel)
}

func (h *CourierHandler) parcelID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "parcelID"), 10, 64)
	return id, err == nil && id > 0
}

func (h *CourierHandler) Track(w http.ResponseWriter, r *http.Request) {
	parcelID, ok := h.parcelID(r)
	if !ok {
		http.Error(w, "invalid parcel id", http.StatusBadRequest)
		return
	}

	parcel, err := h.svc.Track(r.Context(), parcelID)
	if err != nil {
		switch {
		case errors.Is(err, courier.ErrParcelNotFound):
			http.Error(w, "parcel not found", http.StatusNotFound)
		case errors.Is(err, courier.ErrParcelNotTracked):
			http.Error(w, "parcel has no tracking id", http.StatusConflict)
		default:
			log.Error().Err(err).Msg("failed to track parcel")
			http.Error(w, "failed to track parcel", http.StatusBadGateway)
		}
		return
	}

	writeJSON(w, http.StatusOK, parcel)
}

func (h *CourierHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	parcelID, ok := h.parcelID(r)
	if !ok {
		http.Error(w, "invalid parcel id", http.StatusBadRequest)
		return
	}

	parcel, err := h.svc.Cancel(r.Context(), parcelID)
	if err != nil {
		switch {
		case errors.Is(err, courier.ErrParcelNotFound):
			http.Error(w, "parcel not found", http.StatusNotFound)
		case errors.Is(err, courier.ErrParcelNotCancellable):
			http.Error(w, "parcel can no longer be cancelled", http.StatusConflict)
		case errors.Is(err, courier.ErrParcelNotTracked):
			http.Error(w, "parcel has no tracking id", http.StatusConflict)
		default:
			log.Error().Err(err).Msg("failed to cancel parcel")
			http.Error(w, "failed to cancel parcel", http.StatusBadGateway)
		}
		return
	}

	writeJSON(w, http.StatusOK, parcel)
}

func (h *CourierHandler) List(w http.ResponseWriter, r *http.Request) {
	parcels, err := h.svc.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		log.Error().Err(err).Msg("failed to list parcels")
		http.Error(w, "failed to list parcels", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, parcels)
}
