package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fjod/go_cart/bookshop/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Text string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error status (%d): %s", e.Code, e.Text)
}

// HTTPFetcher downloads books.json. Concurrent fetches share one request and
// repeated failures open the breaker.
type HTTPFetcher struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]domain.BookRaw]
	sfg     singleflight.Group
	logger  *zap.Logger
}

func NewHTTPFetcher(url string, timeout time.Duration, logger *zap.Logger) *HTTPFetcher {
	f := &HTTPFetcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}

	f.breaker = gobreaker.NewCircuitBreaker[[]domain.BookRaw](gobreaker.Settings{
		Name:        "catalog-fetch",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context) ([]domain.BookRaw, error) {
	v, err, shared := f.sfg.Do(f.url, func() (interface{}, error) {
		return f.breaker.Execute(func() ([]domain.BookRaw, error) {
			return f.get(ctx)
		})
	})
	if shared {
		f.logger.Debug("catalog fetch shared", zap.String("url", f.url))
	}
	if err != nil {
		return nil, err
	}
	return v.([]domain.BookRaw), nil
}

func (f *HTTPFetcher) get(ctx context.Context) ([]domain.BookRaw, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, Text: http.StatusText(resp.StatusCode)}
	}

	var books []domain.BookRaw
	if err := json.NewDecoder(resp.Body).Decode(&books); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return books, nil
}
