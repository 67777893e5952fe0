package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the /api router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		_ = writeEnvelope(w, http.StatusNotFound, false, "Route not found", nil, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		_ = writeEnvelope(w, http.StatusMethodNotAllowed, false, "Method not allowed", nil, nil)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)

		r.Get("/categories", h.listCategories)
		r.Get("/products", h.listProducts)
		r.Get("/products/featured", h.featuredProducts)
		r.Get("/products/trending", h.trendingProducts)
		r.Get("/products/{id}", h.getProduct)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Get("/auth/me", h.me)
			r.Put("/users/profile", h.updateProfile)
			r.Put("/users/change-password", h.changePassword)

			r.Post("/products/{id}/reviews", h.addReview)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.viewCart)
				r.Post("/", h.addToCart)
				r.Post("/sync", h.syncCart)
				r.Delete("/clear", h.clearCart)
				r.Put("/{id}", h.setCartQty)
				r.Delete("/{id}", h.removeFromCart)
			})

			r.Post("/coupons/apply", h.applyCoupon)

			r.Get("/wishlist", h.listWishlist)
			r.Post("/wishlist/{productID}", h.toggleWishlist)

			r.Get("/addresses", h.listAddresses)
			r.Post("/addresses", h.addAddress)
			r.Delete("/addresses/{id}", h.deleteAddress)
			r.Put("/addresses/{id}/default", h.setDefaultAddress)

			r.Post("/orders", h.placeOrder)
			r.Get("/orders", h.listOrders)
			r.Get("/orders/{id}", h.getOrder)

			r.Route("/admin", func(r chi.Router) {
				r.Use(h.requireAdmin)

				r.Get("/stats", h.adminStats)
				r.Get("/users", h.adminUsers)
				r.Get("/orders", h.adminOrders)
				r.Put("/orders/{id}/status", h.adminUpdateStatus)
				r.Get("/products", h.adminProducts)
				r.Post("/products", h.adminCreateProduct)
				r.Put("/products/{id}", h.adminUpdateProduct)
				r.Delete("/products/{id}", h.adminDeleteProduct)
			})
		})
	})
	return r
}
