package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency is the ISO code of every amount the shop handles.
const Currency = "EUR"

var locale = language.Dutch

// Format renders an amount with the euro sign and Dutch separators, e.g. "€ 6,49".
func Format(amount decimal.Decimal) string {
	p := message.NewPrinter(locale)
	return "€ " + p.Sprintf("%.2f", amount.Round(2).InexactFloat64())
}
