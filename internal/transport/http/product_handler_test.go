package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BITS4/babyshop/internal/domain"
)

const watchWait = time.Second

func TestListProducts(t *testing.T) {
	catalog := &mockCatalogService{products: []domain.Product{
		{LocalID: 1, Name: "rattle", Price: 3.5},
		{LocalID: 2, Name: "onesie", Price: 12},
	}}
	handler := NewProductHandler(catalog)

	rec := httptest.NewRecorder()
	handler.ListProducts(rec, httptest.NewRequest("GET", "/api/v1/products", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []domain.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "rattle", got[0].Name)
}

// flushRecorder signals once the first event has been flushed out.
type flushRecorder struct {
	*httptest.ResponseRecorder
	once    sync.Once
	flushed chan struct{}
}

func newFlushRecorder() *flushRecorder {
	return &flushRecorder{ResponseRecorder: httptest.NewRecorder(), flushed: make(chan struct{})}
}

func (f *flushRecorder) Flush() {
	f.ResponseRecorder.Flush()
	f.once.Do(func() { close(f.flushed) })
}

func TestWatchProducts_StreamsInitialSnapshot(t *testing.T) {
	catalog := &mockCatalogService{products: []domain.Product{{LocalID: 1, Name: "rattle"}}}
	handler := NewProductHandler(catalog)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/v1/products/watch", nil).WithContext(ctx)
	rec := newFlushRecorder()

	done := make(chan struct{})
	go func() {
		handler.WatchProducts(rec, req)
		close(done)
	}()

	select {
	case <-rec.flushed:
	case <-time.After(watchWait):
		t.Fatal("no event flushed")
	}

	cancel()
	<-done

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: products")
	assert.Contains(t, rec.Body.String(), `"name":"rattle"`)
}

func TestCreateProduct(t *testing.T) {
	catalog := &mockCatalogService{}
	handler := NewProductHandler(catalog)

	body, _ := json.Marshal(map[string]interface{}{
		"name":      "bib",
		"price":     5.5,
		"image_url": "https://cdn.example.com/bib.png",
	})
	rec := httptest.NewRecorder()
	handler.CreateProduct(rec, httptest.NewRequest("POST", "/api/v1/admin/products", bytes.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, catalog.created)
	assert.Equal(t, "bib", catalog.created.Name)

	var got domain.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.NotZero(t, got.LocalID)
}

func TestCreateProduct_Invalid(t *testing.T) {
	handler := NewProductHandler(&mockCatalogService{})

	for name, payload := range map[string]string{
		"missing name":   `{"price": 5}`,
		"negative price": `{"name": "bib", "price": -1}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.CreateProduct(rec, httptest.NewRequest("POST", "/api/v1/admin/products", strings.NewReader(payload)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateProduct(t *testing.T) {
	catalog := &mockCatalogService{}
	handler := NewProductHandler(catalog)

	body := strings.NewReader(`{"name": "bib", "price": 6}`)
	req := httptest.NewRequest("PUT", "/api/v1/admin/products/41", body)
	req = withURLParam(req, "id", "41")

	rec := httptest.NewRecorder()
	handler.UpdateProduct(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, catalog.updated)
	assert.Equal(t, int64(41), catalog.updated.LocalID)
}

func TestDeleteProduct_BadID(t *testing.T) {
	handler := NewProductHandler(&mockCatalogService{})

	req := withURLParam(httptest.NewRequest("DELETE", "/api/v1/admin/products/abc", nil), "id", "abc")
	rec := httptest.NewRecorder()
	handler.DeleteProduct(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
