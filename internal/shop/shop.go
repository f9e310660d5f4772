package shop

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/bookshop/internal/cart"
	"github.com/fjod/go_cart/bookshop/internal/catalog"
	"github.com/fjod/go_cart/bookshop/internal/domain"
	"github.com/fjod/go_cart/bookshop/internal/mode"
	"github.com/fjod/go_cart/bookshop/internal/reactive"
	"github.com/fjod/go_cart/bookshop/internal/toast"
	"go.uber.org/zap"
)

var ErrNotInstantiated = errors.New("shop is not instantiated yet")

type Config struct {
	ToastPersist time.Duration
	ToastFade    time.Duration
}

// Shop wires the stores together. Build it once and hand it to every consumer.
type Shop struct {
	toast   *toast.Center
	mode    *mode.Store
	catalog *catalog.Store
	cart    *cart.Store
}

// New starts the first catalog fetch. storage may be nil to disable persistence.
func New(cfg Config, fetcher catalog.Fetcher, storage cart.Storage, logger *zap.Logger) *Shop {
	if cfg.ToastPersist <= 0 {
		cfg.ToastPersist = toast.DefaultPersist
	}
	if cfg.ToastFade <= 0 {
		cfg.ToastFade = toast.DefaultFade
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	notices := toast.New(cfg.ToastPersist, cfg.ToastFade)
	books := catalog.NewStore(fetcher, logger.Named("catalog"))

	return &Shop{
		toast:   notices,
		mode:    mode.NewStore(),
		catalog: books,
		cart:    cart.NewStore(books.Loading(), books, storage, notices.Display, logger.Named("cart")),
	}
}

// Loading is the cart loading flag, which also covers catalog reloads.
func (s *Shop) Loading() reactive.Accessor[bool] {
	return s.cart.Loading()
}

func (s *Shop) Toast() *toast.Center {
	return s.toast
}

func (s *Shop) Mode() *mode.Store {
	return s.mode
}

func (s *Shop) Books() *catalog.Store {
	return s.catalog
}

func (s *Shop) Cart() *cart.Store {
	return s.cart
}

// CurrentBook looks up the book selected by navigation.
func (s *Shop) CurrentBook() (domain.Book, bool) {
	id := s.mode.State().Get().ID
	if id == "" {
		return domain.Book{}, false
	}
	return s.catalog.Book(id)
}

// Close stops the catalog first so no reload reaches a closed cart.
func (s *Shop) Close() {
	s.catalog.Close()
	s.cart.Close()
	s.toast.Close()
}

type contextKey struct{}

func NewContext(ctx context.Context, s *Shop) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (*Shop, error) {
	s, ok := ctx.Value(contextKey{}).(*Shop)
	if !ok || s == nil {
		return nil, ErrNotInstantiated
	}
	return s, nil
}
