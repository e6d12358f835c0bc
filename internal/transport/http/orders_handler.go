package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/BITS4/babyshop/internal/domain"
	"github.com/BITS4/babyshop/internal/orders"
)

// OrdersService is the slice of order history the handlers need.
type OrdersService interface {
	ListForSession(ctx context.Context, session *domain.Session) ([]*domain.Order, error)
	GetForSession(ctx context.Context, session *domain.Session, id uuid.UUID) (*domain.Order, error)
}

type OrdersHandler struct {
	orders OrdersService
}

func NewOrdersHandler(orders OrdersService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// GET /api/v1/orders
//
// A shopper sees their own orders, the admin sees everyone's.
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	session, ok := mustSession(w, r)
	if !ok {
		return
	}

	list, err := h.orders.ListForSession(r.Context(), session)
	if err != nil {
		respondError(w, err)
		return
	}
	if list == nil {
		list = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, list)
}

// GET /api/v1/orders/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	session, ok := mustSession(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, orders.ErrOrderNotFound)
		return
	}

	order, err := h.orders.GetForSession(r.Context(), session, id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
