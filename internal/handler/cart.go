package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Md-Rabbi-95/Khalab/internal/cart"
	"github.com/Md-Rabbi-95/Khalab/internal/catalog"
)

// CartHandler handles HTTP requests for cart lines.
type CartHandler struct {
	svc cart.Service
}

func NewCartHandler(svc cart.Service) *CartHandler {
	return &CartHandler{svc: svc}
}

type addItemRequest struct {
	ProductID int64             `json:"product_id"`
	Fields    map[string]string `json:"fields"`
}

type cartResponse struct {
	Items    []cart.Item     `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Quantity int             `json:"quantity"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(w, r)
	if err != nil {
		http.Error(w, "invalid cart identity", http.StatusBadRequest)
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProductID <= 0 {
		http.Error(w, "product_id is required", http.StatusBadRequest)
		return
	}

	item, err := h.svc.AddItem(r.Context(), owner, req.ProductID, req.Fields)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			http.Error(w, "product not found", http.StatusNotFound)
		case errors.Is(err, cart.ErrOutOfStock):
			http.Error(w, "product is out of stock", http.StatusConflict)
		default:
			log.Error().Err(err).Msg("failed to add cart item")
			http.Error(w, "failed to add item", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

func (h *CartHandler) BuyNow(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(w, r)
	if err != nil {
		http.Error(w, "invalid cart identity", http.StatusBadRequest)
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProductID <= 0 {
		http.Error(w, "product_id is required", http.StatusBadRequest)
		return
	}

	item, err := h.svc.BuyNow(r.Context(), owner, req.ProductID, req.Fields)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			http.Error(w, "product not found", http.StatusNotFound)
		case errors.Is(err, cart.ErrOutOfStock):
			http.Error(w, "product is out of stock", http.StatusConflict)
		default:
			log.Error().Err(err).Msg("failed to buy now")
			http.Error(w, "failed to add item", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// List returns the merged cart with its totals.
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(w, r)
	if err != nil {
		http.Error(w, "invalid cart identity", http.StatusBadRequest)
		return
	}

	items, err := h.svc.MergeAndList(r.Context(), owner)
	if err != nil {
		log.Error().Err(err).Msg("failed to list cart")
		http.Error(w, "failed to list cart", http.StatusInternalServerError)
		return
	}

	subtotal, quantity := cart.Totals(items)
	writeJSON(w, http.StatusOK, cartResponse{Items: items, Subtotal: subtotal.Round(2), Quantity: quantity})
}

func (h *CartHandler) itemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	return id, err == nil && id > 0
}

// RemoveOne decrements a line by one.
func (h *CartHandler) RemoveOne(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(w, r)
	if err != nil {
		http.Error(w, "invalid cart identity", http.StatusBadRequest)
		return
	}
	itemID, ok := h.itemID(r)
	if !ok {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}

	if err := h.svc.RemoveOne(r.Context(), owner, itemID); err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			http.Error(w, "cart item not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("failed to decrement cart item")
		http.Error(w, "failed to update item", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(w, r)
	if err != nil {
		http.Error(w, "invalid cart identity", http.StatusBadRequest)
		return
	}
	itemID, ok := h.itemID(r)
	if !ok {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}

	if err := h.svc.RemoveItem(r.Context(), owner, itemID); err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			http.Error(w, "cart item not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("failed to delete cart item")
		http.Error(w, "failed to delete item", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Adopt attaches the guest cart named by the session header to the
// authenticated user.
func (h *CartHandler) Adopt(w http.ResponseWriter, r *http.Request) {
	raw := r.Header.Get(userHeader)
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "authenticated user required", http.StatusUnauthorized)
		return
	}
	sessionKey := r.Header.Get(sessionHeader)
	if sessionKey == "" {
		http.Error(w, "cart session is required", http.StatusBadRequest)
		return
	}

	if err := h.svc.Adopt(r.Context(), sessionKey, userID); err != nil {
		log.Error().Err(err).Msg("failed to adopt cart")
		http.Error(w, "failed to adopt cart", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SweepStale deletes guest carts older than the requested number of
// days (default 30).
func (h *CartHandler) SweepStale(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("older_than_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "invalid older_than_days", http.StatusBadRequest)
			return
		}
		days = n
	}

	deleted, err := h.svc.DeleteStale(r.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		log.Error().Err(err).Msg("failed to sweep stale carts")
		http.Error(w, "failed to sweep carts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
