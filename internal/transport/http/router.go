package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth     *AuthHandler
	Products *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Profile  *ProfileHandler
}

// NewRouter wires the API surface. The catalog watch stream lives outside
// the request timeout group because it is expected to outlive it.
func NewRouter(h Handlers, parser TokenParser, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(SessionMiddleware(parser))
	r.Use(CartIDMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products/watch", h.Products.WatchProducts)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Use(middleware.Compress(5))

			r.Route("/auth", func(r chi.Router) {
				r.Post("/register", h.Auth.Register)
				r.Post("/login", h.Auth.Login)
				r.Post("/federated", h.Auth.FederatedLogin)
				r.Post("/logout", h.Auth.Logout)
				r.Post("/resend-verification", h.Auth.ResendVerification)
				r.With(RequireSession).Get("/session", h.Auth.Session)
			})

			r.Get("/products", h.Products.ListProducts)

			r.Route("/admin/products", func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Post("/", h.Products.CreateProduct)
				r.Put("/{id}", h.Products.UpdateProduct)
				r.Delete("/{id}", h.Products.DeleteProduct)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Post("/items", h.Cart.AddItem)
				r.Delete("/", h.Cart.ClearCart)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Use(RequireSession)
				r.Post("/", h.Checkout.Submit)
				r.Get("/last-order", h.Checkout.LastOrder)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Use(RequireSession)
				r.Get("/", h.Orders.ListOrders)
				r.Get("/{id}", h.Orders.GetOrder)
			})

			r.Route("/profile", func(r chi.Router) {
				r.Use(RequireSession)
				r.Get("/", h.Profile.GetProfile)
				r.Put("/", h.Profile.SaveProfile)
				r.Get("/avatar", h.Profile.DownloadAvatar)
				r.Put("/avatar", h.Profile.UploadAvatar)
				r.Delete("/avatar", h.Profile.DeleteAvatar)
			})
		})
	})

	return otelhttp.NewHandler(r, "babyshop")
}
