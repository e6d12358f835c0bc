package http

import (
	"context"
	"net/http"

	"github.com/BITS4/babyshop/internal/checkout"
	"github.com/BITS4/babyshop/internal/domain"
)

// CheckoutService is the slice of checkout the handlers need.
type CheckoutService interface {
	Submit(ctx context.Context, session *domain.Session, cartID string, form checkout.Form) (*domain.Order, error)
	LastOrder(ctx context.Context, cartID string) (*domain.Order, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
}

func NewCheckoutHandler(co CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: co}
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	session, ok := mustSession(w, r)
	if !ok {
		return
	}

	var form checkout.Form
	if !decodeJSON(w, r, &form) {
		return
	}

	order, err := h.checkout.Submit(r.Context(), session, cartIDFrom(r.Context()), form)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

// GET /api/v1/checkout/last-order
func (h *CheckoutHandler) LastOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkout.LastOrder(r.Context(), cartIDFrom(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
