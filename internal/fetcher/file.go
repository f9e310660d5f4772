package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fjod/go_cart/bookshop/internal/domain"
)

// FileFetcher reads the catalog feed from disk.
type FileFetcher struct {
	path string
}

func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{path: path}
}

func (f *FileFetcher) Fetch(ctx context.Context) ([]domain.BookRaw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var books []domain.BookRaw
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("failed to decode catalog file %s: %w", f.path, err)
	}
	return books, nil
}
