package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is a cart entry materialized against the current catalog.
type CartLine struct {
	Book     Book `json:"book"`
	Quantity int  `json:"quantity"`
}

func (l CartLine) Price() decimal.Decimal {
	return l.Book.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// IsValid reports whether the referenced book can still be bought.
func (l CartLine) IsValid() bool {
	return l.Book.IsAvailable
}

// ItemJSON is the persisted shape of one cart line.
type ItemJSON struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// Receipt captures the cart at checkout time
type Receipt struct {
	ID          string          `json:"checkout_id"`
	Lines       []CartLine      `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	CompletedAt time.Time       `json:"completed_at"`
}
