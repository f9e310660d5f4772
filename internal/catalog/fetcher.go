package catalog

import (
	"context"

	"github.com/fjod/go_cart/bookshop/internal/domain"
)

// Fetcher loads the raw catalog feed. Store wraps its errors in ErrFetchFailed.
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.BookRaw, error)
}

type FetcherFunc func(ctx context.Context) ([]domain.BookRaw, error)

func (f FetcherFunc) Fetch(ctx context.Context) ([]domain.BookRaw, error) {
	return f(ctx)
}
