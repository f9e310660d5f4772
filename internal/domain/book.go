package domain

import "github.com/shopspring/decimal"

// BookRaw is one record of the catalog feed (books.json).
type BookRaw struct {
	ID       string          `json:"id"`
	Cat      []string        `json:"cat,omitempty"`
	Name     string          `json:"name"`
	Author   string          `json:"author"`
	Series   string          `json:"series,omitempty"`
	Sequence int             `json:"sequence"`
	Genre    string          `json:"genre,omitempty"`
	InStock  bool            `json:"in_stock"`
	Price    decimal.Decimal `json:"price"`
	Pages    int             `json:"pages"`
}

// Book is the catalog entry the shop works with.
type Book struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Author      string          `json:"author"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"is_available"`
}

func BookFromRaw(raw BookRaw) Book {
	return Book{
		ID:          raw.ID,
		Name:        raw.Name,
		Author:      raw.Author,
		Price:       raw.Price,
		IsAvailable: true,
	}
}
