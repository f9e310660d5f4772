package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/bookshop/internal/cart"
	"github.com/fjod/go_cart/bookshop/internal/domain"
	"github.com/fjod/go_cart/bookshop/internal/money"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReceiptPublisher announces a completed checkout.
type ReceiptPublisher interface {
	Publish(ctx context.Context, receipt domain.Receipt) error
}

type CartHandler struct {
	publisher ReceiptPublisher
	timeout   time.Duration
	logger    *zap.Logger
}

// NewCartHandler accepts a nil publisher; receipts are then only returned.
func NewCartHandler(publisher ReceiptPublisher, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		publisher: publisher,
		timeout:   timeout,
		logger:    logger,
	}
}

type AddItemRequestDTO struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// UpdateQuantityRequestDTO carries the raw text of a quantity input.
type UpdateQuantityRequestDTO struct {
	Quantity string `json:"quantity"`
}

type CartLineResponse struct {
	Book      BookResponse    `json:"book"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Valid     bool            `json:"valid"`
}

type CartResponse struct {
	Items          []CartLineResponse `json:"items"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	Discount       decimal.Decimal    `json:"discount"`
	Total          decimal.Decimal    `json:"total"`
	TotalFormatted string             `json:"total_formatted"`
	CanCheckout    bool               `json:"can_checkout"`
	Loading        bool               `json:"loading"`
}

func toCartResponse(snap cart.Snapshot, loading bool) *CartResponse {
	resp := &CartResponse{
		Items:          make([]CartLineResponse, len(snap.Lines)),
		Subtotal:       snap.Totals.Subtotal,
		Discount:       snap.Totals.Discount,
		Total:          snap.Totals.Total,
		TotalFormatted: money.Format(snap.Totals.Total),
		CanCheckout:    snap.CanCheckout,
		Loading:        loading,
	}
	for i, line := range snap.Lines {
		resp.Items[i] = CartLineResponse{
			Book:      toBookResponse(line.Book),
			Quantity:  line.Quantity,
			LineTotal: line.Price(),
			Valid:     line.IsValid(),
		}
	}
	return resp
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := shopFrom(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(s.Cart().Snapshot(), s.Loading().Get()))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s, ok := shopFrom(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.ID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_book_id", "id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}
	if _, known := s.Books().Book(req.ID); !known {
		respondError(w, http.StatusNotFound, "not_found", "book not found")
		return
	}

	s.Cart().AddItem(req.ID, req.Quantity, true)
	respondJSON(w, http.StatusCreated, toCartResponse(s.Cart().Snapshot(), s.Loading().Get()))
}

// UpdateQuantity applies the quantity text as typed; zero or less removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := shopFrom(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if !hasLine(s.Cart().Lines(), id) {
		respondError(w, http.StatusNotFound, "not_found", "book is not in the cart")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	s.Cart().UpdateItem(id, req.Quantity)
	respondJSON(w, http.StatusOK, toCartResponse(s.Cart().Snapshot(), s.Loading().Get()))
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	s, ok := shopFrom(w, r)
	if !ok {
		return
	}

	if !s.Cart().CanCheckout() {
		respondError(w, http.StatusConflict, "checkout_unavailable", "cart is empty or holds unavailable books")
		return
	}

	receipt := s.Cart().Checkout(true)

	if h.publisher != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		if err := h.publisher.Publish(ctx, receipt); err != nil {
			h.logger.Error("failed to publish receipt",
				zap.String("checkout_id", receipt.ID),
				zap.String("request_id", getRequestID(r.Context())),
				zap.Error(err))
		}
	}

	respondJSON(w, http.StatusOK, receipt)
}

func hasLine(lines []domain.CartLine, id string) bool {
	for _, line := range lines {
		if line.Book.ID == id {
			return true
		}
	}
	return false
}
