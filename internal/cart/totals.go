package cart

import (
	"github.com/fjod/go_cart/bookshop/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	discountThreshold = decimal.NewFromInt(100)
	discountRate      = decimal.RequireFromString("0.1")
)

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// totalsOf includes unavailable lines; only checkout and persistence skip them.
func totalsOf(lines []domain.CartLine) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Price())
	}

	discount := decimal.Zero
	if subtotal.GreaterThanOrEqual(discountThreshold) {
		discount = subtotal.Mul(discountRate)
	}

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
	}
}

func canCheckout(lines []domain.CartLine) bool {
	if len(lines) == 0 {
		return false
	}
	for _, line := range lines {
		if line.Quantity <= 0 || !line.IsValid() {
			return false
		}
	}
	return true
}

// projectionOf is what gets persisted: available lines only.
func projectionOf(lines []domain.CartLine) []domain.ItemJSON {
	items := make([]domain.ItemJSON, 0, len(lines))
	for _, line := range lines {
		if line.IsValid() {
			items = append(items, domain.ItemJSON{ID: line.Book.ID, Quantity: line.Quantity})
		}
	}
	return items
}
