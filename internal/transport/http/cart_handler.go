package http

import (
	"context"
	"net/http"

	"github.com/BITS4/babyshop/internal/catalog"
	"github.com/BITS4/babyshop/internal/domain"
)

// CartService is the slice of the cart the handlers need.
type CartService interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Add(ctx context.Context, sessionID string, p domain.Product) (*domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type CartHandler struct {
	carts   CartService
	catalog CatalogService
}

func NewCartHandler(carts CartService, cat CatalogService) *CartHandler {
	return &CartHandler{carts: carts, catalog: cat}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	current, err := h.carts.Get(r.Context(), cartIDFrom(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, current)
}

type addToCartRequest struct {
	ProductID int64 `json:"product_id"`
}

// POST /api/v1/cart/items
//
// The product is resolved from the catalog snapshot so the cart line carries
// the price the shopper saw.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, ok := h.findProduct(req.ProductID)
	if !ok {
		respondError(w, catalog.ErrProductNotFound)
		return
	}

	updated, err := h.carts.Add(r.Context(), cartIDFrom(r.Context()), product)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), cartIDFrom(r.Context())); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *CartHandler) findProduct(localID int64) (domain.Product, bool) {
	for _, p := range h.catalog.List() {
		if p.LocalID == localID {
			return p, true
		}
	}
	return domain.Product{}, false
}
