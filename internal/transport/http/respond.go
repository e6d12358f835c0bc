package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/BITS4/babyshop/internal/authn"
	"github.com/BITS4/babyshop/internal/cart"
	"github.com/BITS4/babyshop/internal/catalog"
	"github.com/BITS4/babyshop/internal/checkout"
	"github.com/BITS4/babyshop/internal/orders"
	"github.com/BITS4/babyshop/internal/profile"
)

type errorResponse struct {
	Error string `json:"error"`
}

// decodeJSON reads the request body into v and writes a 400 on malformed
// input. It reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// respondError maps the service error taxonomy onto HTTP statuses:
// validation 400, authorization 401/403, unresolved records 404, conflicts
// 409, a tripped breaker 503, anything else 500.
func respondError(w http.ResponseWriter, err error) {
	var verr *checkout.ValidationError

	switch {
	case errors.As(err, &verr),
		errors.Is(err, authn.ErrRegistrationRejected),
		errors.Is(err, checkout.ErrEmptyCart):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})

	case errors.Is(err, authn.ErrInvalidCredentials),
		errors.Is(err, authn.ErrUnverifiedEmail),
		errors.Is(err, authn.ErrNoSession),
		errors.Is(err, checkout.ErrNoSession):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})

	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, checkout.ErrNoLastOrder),
		errors.Is(err, profile.ErrProfileNotFound),
		errors.Is(err, cart.ErrCartNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})

	case errors.Is(err, authn.ErrEmailExists):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})

	case errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "auth service unavailable"})

	default:
		log.Printf("internal error: %v", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
