package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/bookshop/internal/catalog"
	"github.com/fjod/go_cart/bookshop/internal/domain"
	"github.com/fjod/go_cart/bookshop/internal/fetcher"
	"github.com/fjod/go_cart/bookshop/internal/shop"
	"github.com/fjod/go_cart/bookshop/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const seaOfMonsters = "978-1423103349"

type fakePublisher struct {
	mu       sync.Mutex
	receipts []domain.Receipt
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, receipt domain.Receipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts = append(f.receipts, receipt)
	return f.err
}

func setupRouter(t *testing.T, f catalog.Fetcher, pub ReceiptPublisher) (http.Handler, *shop.Shop) {
	t.Helper()
	s := shop.New(shop.Config{}, f, storage.NewMemory(""), zap.NewNop())
	t.Cleanup(s.Close)

	require.Eventually(t, func() bool { return !s.Loading().Get() }, time.Second, time.Millisecond)
	return NewRouter(s, pub, 5*time.Second, zap.NewNop()), s
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	h, _ := setupRouter(t, fetcher.NewFileFetcher("testdata/books.json"), nil)

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestID_Propagated(t *testing.T) {
	h, _ := setupRouter(t, fetcher.NewFileFetcher("testdata/books.json"), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestListBooks_SortedByName(t *testing.T) {
	h, s := setupRouter(t, fetcher.NewFileFetcher("testdata/books.json"), nil)
	require.NoError(t, s.Mode().SetMode(domain.ModeCart, nil, "/cart"))

	w := do(t, h, http.MethodGet, "/api/v1/books", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[BooksResponse](t, w)
	require.Len(t, resp.Books, 4)
	ids := make([]string, len(resp.Books))
	for i, b := range resp.Books {
		ids[i] = b.ID
	}
	assert.Equal(t, []string{"978-1933988177", "978-1857995879", "978-0641723445", "978-1423103349"}, ids)
	assert.Equal(t, "€ 30,50", resp.Books[0].PriceFormatted)
	assert.Equal(t, 4, resp.Known)
	assert.Equal(t, 4, resp.Available)
	assert.False(t, resp.Loading)

	assert.Equal(t, domain.NavigationState{Mode: domain.ModeBooks, Pathname: "/api/v1/books"}, s.Mode().State().Get())
}

func TestListBooks_CatalogError(t *testing.T) {
	failing := catalog.FetcherFunc(func(context.Context) ([]domain.BookRaw, error) {
		return nil, errors.New("HTTP error status (500): Internal Server Error")
	})
	h, _ := setupRouter(t, failing, nil)

	w := do(t, h, http.MethodGet, "/api/v1/books", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "catalog_unavailable", resp.Code)
	assert.Contains(t, resp.Error, "could not load catalog")
}

func TestRefetch(t *testing.T) {
	h, s := setupRouter(t, fetcher.NewFileFetcher("testdata/books.json"), nil)

	w := do(t, h, http.MethodPost, "/api/v1/books/refetch", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	require.Eventually(t, func() bool { return !s.Loading().Get() }, time.Second, time.Millisecond)
	_, available := s.Books().Sizes()
	assert.Equal(t, 4, available)
}

func TestGetBook(t *testing.T) {
	h, s := setupRouter(t, fetcher.NewFileFetcher("testdata/books.json"), nil)

	w := do(t, h, http.MethodGet, "/api/v1/book/"+seaOfMonsters, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[BookResponse](t, w)
	assert.Equal(t, "The Sea of Monsters", resp.Name)
	assert.Equal(t, "€ 6,49", resp.PriceFormatted)
	assert.True(t, resp.IsAvailable)

	nav := s.Mode().State().Get()
	assert.Equal(t, domain.ModeBookDetail, nav.Mode)
	assert.Equal(t, seaOfMonsters, nav.ID)
	assert.Equal(t, "/api/v1/book/"+seaOfMonsters, nav.Pathname)
}

func TestGetBook_NotFound(t *testing.T) {
	h, _ := setupRouter(t, fetcher.NewFileFetcher("testdata/books.json"), nil)

	w := do(t, h, http.MethodGet, "/api/v1/book/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddItem_Validation(t *testing.T) {
	h, _ := setupRouter(t, fetcher.NewFileFetcher("testdata/books.json"), nil)

	tests := []struct {
		name string
		body interface{}
		code int
		err  string
	}{
		{"invalid json", "{", http.StatusBadRequest, "invalid_request"},
		{"missing id", AddItemRequestDTO{Quantity: 1}, http.StatusBadRequest, "invalid_book_id"},
		{"zero quantity", AddItemRequestDTO{ID: seaOfMonsters}, http.StatusBadRequest, "invalid_quantity"},
		{"too many", AddItemRequestDTO{ID: seaOfMonsters, Quantity: 100}, http.StatusBadRequest, "invalid_quantity"},
		{"unknown book", AddItemRequestDTO{ID: "nope", Quantity: 1}, http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/v1/cart/items", tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.err, decode[ErrorResponse](t, w).Code)
		})
	}
}

func TestCartFlow(t *testing.T) {
	pub := &fakePublisher{}
	h, s := setupRouter(t, fetcher.NewFileFetcher("testdata/books.json"), pub)

	w := do(t, h, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ID: seaOfMonsters, Quantity: 1})
	require.Equal(t, http.StatusCreated, w.Code)
	cart := decode[CartResponse](t, w)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "€ 6,49", cart.TotalFormatted)
	assert.True(t, cart.CanCheckout)
	assert.Equal(t, `Added (1) of "The Sea of Monsters"`, s.Toast().State().Get().LastMessage())

	w = do(t, h, http.MethodPut, "/api/v1/cart/items/"+seaOfMonsters, UpdateQuantityRequestDTO{Quantity: "20"})
	require.Equal(t, http.StatusOK, w.Code)
	cart = decode[CartResponse](t, w)
	assert.Equal(t, 20, cart.Items[0].Quantity)
	assert.Equal(t, "129.8", cart.Subtotal.String())
	assert.Equal(t, "12.98", cart.Discount.String())
	assert.Equal(t, "€ 116,82", cart.TotalFormatted)

	w = do(t, h, http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.ModeCart, s.Mode().State().Get().Mode)

	w = do(t, h, http.MethodPost, "/api/v1/cart/checkout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	receipt := decode[domain.Receipt](t, w)
	assert.NotEmpty(t, receipt.ID)
	assert.Equal(t, "116.82", receipt.Total.String())
	assert.Equal(t, "Bought books for € 116,82!", s.Toast().State().Get().LastMessage())

	require.Len(t, pub.receipts, 1)
	assert.Equal(t, receipt.ID, pub.receipts[0].ID)

	w = do(t, h, http.MethodPost, "/api/v1/cart/checkout", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateQuantity(t *testing.T) {
	h, s := setupRouter(t, fetcher.NewFileFetcher("testdata/books.json"), nil)

	w := do(t, h, http.MethodPut, "/api/v1/cart/items/"+seaOfMonsters, UpdateQuantityRequestDTO{Quantity: "2"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.Cart().AddItem(seaOfMonsters, 2, false)

	w = do(t, h, http.MethodPut, "/api/v1/cart/items/"+seaOfMonsters, UpdateQuantityRequestDTO{Quantity: "abc"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[CartResponse](t, w).Items[0].Quantity)

	w = do(t, h, http.MethodPut, "/api/v1/cart/items/"+seaOfMonsters, "{")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPut, "/api/v1/cart/items/"+seaOfMonsters, UpdateQuantityRequestDTO{Quantity: "0"})
	require.Equal(t, http.StatusOK, w.Code)
	cart := decode[CartResponse](t, w)
	assert.Empty(t, cart.Items)
	assert.False(t, cart.CanCheckout)
}

func TestCheckout_PublishFailureStillCompletes(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	h, s := setupRouter(t, fetcher.NewFileFetcher("testdata/books.json"), pub)
	s.Cart().AddItem(seaOfMonsters, 1, false)

	w := do(t, h, http.MethodPost, "/api/v1/cart/checkout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, s.Cart().Len())
}

func TestToastAndMode(t *testing.T) {
	h, s := setupRouter(t, fetcher.NewFileFetcher("testdata/books.json"), nil)
	s.Toast().Display("hello")

	w := do(t, h, http.MethodGet, "/api/v1/toast", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var toast struct {
		Show     bool     `json:"show"`
		Messages []string `json:"messages"`
		Phase    string   `json:"phase"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toast))
	assert.True(t, toast.Show)
	assert.Equal(t, []string{"hello"}, toast.Messages)
	assert.Equal(t, "showing", toast.Phase)

	do(t, h, http.MethodGet, "/api/v1/book/"+seaOfMonsters, nil)
	w = do(t, h, http.MethodGet, "/api/v1/mode", nil)
	nav := decode[domain.NavigationState](t, w)
	assert.Equal(t, domain.ModeBookDetail, nav.Mode)
	assert.Equal(t, seaOfMonsters, nav.ID)
}

func TestNavigate_WithoutShop(t *testing.T) {
	called := false
	h := Navigate(domain.ModeCart)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "shop is not instantiated yet", decode[ErrorResponse](t, w).Error)
	assert.False(t, called)
}
