package http

import (
	"net/http"

	"github.com/fjod/go_cart/bookshop/internal/domain"
	"github.com/fjod/go_cart/bookshop/internal/money"
	"github.com/fjod/go_cart/bookshop/internal/shop"
	"github.com/shopspring/decimal"
)

type BookResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Author         string          `json:"author"`
	Price          decimal.Decimal `json:"price"`
	PriceFormatted string          `json:"price_formatted"`
	IsAvailable    bool            `json:"is_available"`
}

type BooksResponse struct {
	Books     []BookResponse `json:"books"`
	Loading   bool           `json:"loading"`
	Known     int            `json:"known"`
	Available int            `json:"available"`
}

func toBookResponse(b domain.Book) BookResponse {
	return BookResponse{
		ID:             b.ID,
		Name:           b.Name,
		Author:         b.Author,
		Price:          b.Price,
		PriceFormatted: money.Format(b.Price),
		IsAvailable:    b.IsAvailable,
	}
}

type BookHandler struct{}

func NewBookHandler() *BookHandler {
	return &BookHandler{}
}

// List returns the available books in name order.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := shopFrom(w, r)
	if !ok {
		return
	}

	books := s.Books()
	if err := books.Err(); err != nil {
		respondError(w, http.StatusServiceUnavailable, "catalog_unavailable", err.Error())
		return
	}

	available := books.Available()
	resp := &BooksResponse{
		Books:   make([]BookResponse, len(available)),
		Loading: books.Loading().Get(),
	}
	for i, b := range available {
		resp.Books[i] = toBookResponse(b)
	}
	resp.Known, resp.Available = books.Sizes()

	respondJSON(w, http.StatusOK, resp)
}

func (h *BookHandler) Refetch(w http.ResponseWriter, r *http.Request) {
	s, ok := shopFrom(w, r)
	if !ok {
		return
	}

	s.Books().Refetch()
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "refetching"})
}

// Get returns the book selected by the route.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := shopFrom(w, r)
	if !ok {
		return
	}

	book, found := s.CurrentBook()
	if !found {
		respondError(w, http.StatusNotFound, "not_found", "book not found")
		return
	}
	respondJSON(w, http.StatusOK, toBookResponse(book))
}

func shopFrom(w http.ResponseWriter, r *http.Request) (*shop.Shop, bool) {
	s, err := shop.FromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "shop_unavailable", err.Error())
		return nil, false
	}
	return s, true
}
