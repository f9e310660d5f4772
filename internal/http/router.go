package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/bookshop/internal/domain"
	"github.com/fjod/go_cart/bookshop/internal/shop"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter mounts the shop API. Page routes also drive navigation.
func NewRouter(s *shop.Shop, publisher ReceiptPublisher, timeout time.Duration, logger *zap.Logger) http.Handler {
	books := NewBookHandler()
	carts := NewCartHandler(publisher, timeout, logger)
	state := NewStateHandler()

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Timeout(timeout))
	r.Use(ShopMiddleware(s))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.With(Navigate(domain.ModeBooks)).Get("/books", books.List)
		r.Post("/books/refetch", books.Refetch)
		r.With(Navigate(domain.ModeBookDetail)).Get("/book/{id}", books.Get)

		r.Route("/cart", func(r chi.Router) {
			r.With(Navigate(domain.ModeCart)).Get("/", carts.GetCart)
			r.Post("/items", carts.AddItem)
			r.Put("/items/{id}", carts.UpdateQuantity)
			r.Post("/checkout", carts.Checkout)
		})

		r.Get("/toast", state.Toast)
		r.Get("/mode", state.Mode)
	})

	return r
}
