package cart

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/fjod/go_cart/bookshop/internal/domain"
	"github.com/fjod/go_cart/bookshop/internal/money"
	"github.com/fjod/go_cart/bookshop/internal/reactive"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const storageTimeout = 5 * time.Second

// Store owns the cart lines. All mutation goes through its methods.
type Store struct {
	books   Catalog
	storage Storage
	send    SendNotice
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu               sync.Mutex
	items            []item
	state            State
	loading          bool
	lastBooksLoading bool
	revision         uint64
	saved            string // last projection handed to storage
	pending          string
	hasPending       bool
	closed           bool

	loadingSig  *reactive.Signal[bool]
	revisionSig *reactive.Signal[uint64]

	unsubscribe func()
	wake        chan struct{}
	done        chan struct{}
}

// NewStore creates the cart and ties its lifecycle to the catalog loading signal.
// storage and send are optional.
func NewStore(booksLoading reactive.Accessor[bool], books Catalog, storage Storage, send SendNotice, logger *zap.Logger) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		books:            books,
		storage:          storage,
		send:             send,
		logger:           logger,
		ctx:              ctx,
		cancel:           cancel,
		state:            Uninitialized,
		loading:          true,
		lastBooksLoading: true,
		loadingSig:       reactive.New(true, reactive.Comparable[bool]()),
		revisionSig:      reactive.New(uint64(0), reactive.Comparable[uint64]()),
		wake:             make(chan struct{}, 1),
		done:             make(chan struct{}),
	}

	if storage != nil {
		s.wg.Add(1)
		go s.saveLoop()
	}

	s.mu.Lock()
	s.state = AwaitingFirstCatalogLoad
	s.mu.Unlock()

	s.unsubscribe = booksLoading.Subscribe(s.onBooksLoading)
	// the catalog may have finished loading before the cart existed
	s.onBooksLoading(booksLoading.Get())

	return s
}

// Loading is true until the persisted cart has been restored, and again
// while the catalog reloads.
func (s *Store) Loading() reactive.Accessor[bool] {
	return s.loadingSig
}

// Revision changes after every mutation of the lines.
func (s *Store) Revision() reactive.Accessor[uint64] {
	return s.revisionSig
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AddItem adds quantity to the line of the book, creating the line if needed.
// Unknown books and non-positive quantities are ignored.
func (s *Store) AddItem(id string, quantity int, notify bool) {
	if quantity < 1 {
		return
	}

	s.mu.Lock()
	var notice string
	if idx := s.indexLocked(id); idx >= 0 {
		s.items[idx].quantity += quantity
		book, _ := s.books.Book(id)
		notice = fmt.Sprintf("Updated \"%s\" quantity to %d", book.Name, s.items[idx].quantity)
	} else {
		book, ok := s.books.Book(id)
		if !ok {
			s.mu.Unlock()
			s.logger.Debug("ignoring unknown book", zap.String("book_id", id))
			return
		}
		s.items = append(s.items, item{bookID: id, quantity: quantity})
		notice = fmt.Sprintf("Added (%d) of \"%s\"", quantity, book.Name)
	}
	s.changedLocked()
	s.mu.Unlock()

	s.syncRevision()
	if notify {
		s.notify(notice)
	}
}

// UpdateItem sets the quantity from user input. A leading integer is
// required; zero or less removes the line.
func (s *Store) UpdateItem(id string, value string) {
	quantity, ok := parseQuantity(value)
	if !ok {
		return
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	if quantity > 0 {
		s.items[idx].quantity = quantity
	} else {
		s.items = slices.Delete(s.items, idx, idx+1)
	}
	s.changedLocked()
	s.mu.Unlock()

	s.syncRevision()
}

// Checkout empties the cart and returns what was bought. Callers check CanCheckout first.
func (s *Store) Checkout(notify bool) domain.Receipt {
	s.mu.Lock()
	lines := s.linesLocked()
	totals := totalsOf(lines)
	s.items = nil
	s.changedLocked()
	s.mu.Unlock()

	s.syncRevision()

	receipt := domain.Receipt{
		ID:          uuid.NewString(),
		Lines:       lines,
		Subtotal:    totals.Subtotal,
		Discount:    totals.Discount,
		Total:       totals.Total,
		Currency:    money.Currency,
		CompletedAt: time.Now(),
	}

	if notify {
		s.notify(fmt.Sprintf("Bought books for %s!", money.Format(totals.Total)))
	}
	return receipt
}

// Lines materializes the cart against the current catalog, in first-added order.
func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linesLocked()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) Totals() Totals {
	return totalsOf(s.Lines())
}

func (s *Store) Subtotal() decimal.Decimal {
	return s.Totals().Subtotal
}

func (s *Store) Discount() decimal.Decimal {
	return s.Totals().Discount
}

func (s *Store) Total() decimal.Decimal {
	return s.Totals().Total
}

// Snapshot is the lines together with what they add up to, read at one instant.
type Snapshot struct {
	Lines       []domain.CartLine
	Totals      Totals
	CanCheckout bool
}

func (s *Store) Snapshot() Snapshot {
	lines := s.Lines()
	return Snapshot{
		Lines:       lines,
		Totals:      totalsOf(lines),
		CanCheckout: canCheckout(lines),
	}
}

// CanCheckout is false for an empty cart or when any line is unavailable.
func (s *Store) CanCheckout() bool {
	return canCheckout(s.Lines())
}

// Close stops listening to the catalog, flushes a pending save and waits
// for background work.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.unsubscribe()
	s.cancel()
	close(s.done)
	s.wg.Wait()
}

func (s *Store) notify(text string) {
	if s.send == nil {
		return
	}
	s.send(text)
}

// indexLocked must be called with s.mu held.
func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.items, func(it item) bool {
		return it.bookID == id
	})
}

// linesLocked must be called with s.mu held.
func (s *Store) linesLocked() []domain.CartLine {
	lines := make([]domain.CartLine, 0, len(s.items))
	for _, it := range s.items {
		book, ok := s.books.Book(it.bookID)
		if !ok {
			book = domain.Book{ID: it.bookID}
		}
		lines = append(lines, domain.CartLine{Book: book, Quantity: it.quantity})
	}
	return lines
}

// changedLocked must be called with s.mu held.
func (s *Store) changedLocked() {
	s.revision++
	s.persistLocked()
}

func (s *Store) syncRevision() {
	s.revisionSig.Update(func(uint64) uint64 {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.revision
	})
}

func (s *Store) syncLoading() {
	s.loadingSig.Update(func(bool) bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.loading
	})
}

// parseQuantity reads the leading integer of value, ignoring what follows it.
func parseQuantity(value string) (int, bool) {
	v := strings.TrimLeftFunc(value, unicode.IsSpace)

	end := 0
	if end < len(v) && (v[end] == '+' || v[end] == '-') {
		end++
	}
	digits := end
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	quantity, err := strconv.Atoi(v[:end])
	if err != nil {
		return 0, false
	}
	return quantity, true
}
