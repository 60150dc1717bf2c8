package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Md-Rabbi-95/Khalab/internal/cart"
)

// Guest carts are identified by an opaque session key in this header.
// The first cart write issues one; clients echo it back.
const sessionHeader = "X-Cart-Session"

// userHeader carries the authenticated user id set by the auth layer in
// front of this service.
const userHeader = "X-User-ID"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Info().Msgf("Failed to encode response: %v", err)
	}
}

// ownerFromRequest resolves the cart identity: an authenticated user
// wins; otherwise the session key, freshly issued when missing. The
// session key is always mirrored back on the response.
func ownerFromRequest(w http.ResponseWriter, r *http.Request) (cart.Owner, error) {
	if raw := r.Header.Get(userHeader); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			return cart.Owner{}, errors.New("invalid user id header")
		}
		return cart.UserOwner(userID), nil
	}

	sessionKey := r.Header.Get(sessionHeader)
	if sessionKey == "" {
		key, err := uuid.NewV4()
		if err != nil {
			return cart.Owner{}, err
		}
		sessionKey = key.String()
	}
	w.Header().Set(sessionHeader, sessionKey)
	return cart.GuestOwner(sessionKey), nil
}
