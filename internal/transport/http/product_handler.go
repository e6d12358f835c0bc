package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BITS4/babyshop/internal/domain"
)

// CatalogService is the slice of the catalog the handlers need.
type CatalogService interface {
	List() []domain.Product
	Subscribe() (<-chan []domain.Product, func())
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Update(ctx context.Context, localID int64, p domain.Product) error
	Delete(ctx context.Context, localID int64) error
}

type ProductHandler struct {
	catalog CatalogService
}

func NewProductHandler(catalog CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.List())
}

// GET /api/v1/products/watch
//
// Streams catalog snapshots as server-sent events. The first event carries
// the current catalog; each later event replaces it wholesale.
func (h *ProductHandler) WatchProducts(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates, cancel := h.catalog.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(snapshot)
			if err != nil {
				return
			}
			fmt.Fprintf(w, "event: products\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
	Category    string  `json:"category"`
}

func (req *productRequest) validate() error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if req.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return nil
}

func (req *productRequest) toDomain() domain.Product {
	return domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
	}
}

// POST /api/v1/admin/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	created, err := h.catalog.Create(r.Context(), req.toDomain())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// PUT /api/v1/admin/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	localID, ok := productID(w, r)
	if !ok {
		return
	}

	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := h.catalog.Update(r.Context(), localID, req.toDomain()); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DELETE /api/v1/admin/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	localID, ok := productID(w, r)
	if !ok {
		return
	}

	if err := h.catalog.Delete(r.Context(), localID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return 0, false
	}
	return id, true
}
