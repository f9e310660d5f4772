package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/fjod/go_cart/bookshop/internal/domain"
	"github.com/fjod/go_cart/bookshop/internal/reactive"
	"go.uber.org/zap"
)

var ErrFetchFailed = errors.New("could not load catalog")

// Store keeps every book ever seen. Books missing from the latest load stay
// in the collection marked unavailable.
type Store struct {
	fetcher Fetcher
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	books   map[string]domain.Book
	order   []string // ids in first-seen order, the tie-break for sorting
	sorted  []string
	loading bool
	err     error
	gen     uint64 // only the fetch carrying the latest generation may apply
	closed  bool

	loadingSig *reactive.Signal[bool]
	sortedSig  *reactive.Signal[[]string]
}

// NewStore issues the first fetch right away.
func NewStore(fetcher Fetcher, logger *zap.Logger) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		fetcher:    fetcher,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		books:      make(map[string]domain.Book),
		sorted:     []string{},
		loading:    true,
		loadingSig: reactive.New(true, reactive.Comparable[bool]()),
		sortedSig:  reactive.New([]string{}, reactive.WithEqual(func(a, b []string) bool { return slices.Equal(a, b) })),
	}

	s.Refetch()
	return s
}

func (s *Store) Loading() reactive.Accessor[bool] {
	return s.loadingSig
}

// Sorted holds the ids of available books ordered by name. Treat the slice as read-only.
func (s *Store) Sorted() reactive.Accessor[[]string] {
	return s.sortedSig
}

// Refetch reissues the fetch. Completions of earlier fetches are dropped.
func (s *Store) Refetch() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.loading = true
	s.gen++
	gen := s.gen
	s.wg.Add(1)
	s.mu.Unlock()

	s.syncLoading()
	go s.load(gen)
}

func (s *Store) Book(id string) (domain.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, ok := s.books[id]
	return book, ok
}

func (s *Store) Books() map[string]domain.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.books)
}

// Available returns the available books in name order.
func (s *Store) Available() []domain.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]domain.Book, 0, len(s.sorted))
	for _, id := range s.sorted {
		books = append(books, s.books[id])
	}
	return books
}

// Sizes reports how many books are known and how many of them are available.
func (s *Store) Sizes() (total, available int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books), len(s.sorted)
}

// Err returns the failure of the latest load, nil once a load succeeds.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Close cancels the in-flight fetch and waits for it to return.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.gen++
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Store) load(gen uint64) {
	defer s.wg.Done()

	payload, err := s.fetcher.Fetch(s.ctx)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("dropping superseded catalog load", zap.Uint64("generation", gen))
		return
	}

	if err != nil {
		s.err = fmt.Errorf("%w: %w", ErrFetchFailed, err)
		s.loading = false
		s.mu.Unlock()

		s.logger.Error("catalog load failed", zap.Error(err))
		s.syncLoading()
		return
	}

	s.merge(payload)
	s.err = nil
	s.loading = false
	total, available := len(s.books), len(s.sorted)
	s.mu.Unlock()

	s.logger.Info("catalog loaded",
		zap.Int("received", len(payload)),
		zap.Int("known", total),
		zap.Int("available", available))

	// sorted ids first: loading observers must never see a stale order
	s.syncSorted()
	s.syncLoading()
}

// merge must be called with s.mu held.
func (s *Store) merge(payload []domain.BookRaw) {
	for id, book := range s.books {
		book.IsAvailable = false
		s.books[id] = book
	}

	for _, raw := range payload {
		if _, known := s.books[raw.ID]; !known {
			s.order = append(s.order, raw.ID)
		}
		s.books[raw.ID] = domain.BookFromRaw(raw)
	}

	s.sorted = s.sortedIDs()
}

func (s *Store) sortedIDs() []string {
	available := make([]domain.Book, 0, len(s.order))
	for _, id := range s.order {
		if book := s.books[id]; book.IsAvailable {
			available = append(available, book)
		}
	}

	slices.SortStableFunc(available, byNameAsc)

	ids := make([]string, len(available))
	for i, book := range available {
		ids[i] = book.ID
	}
	return ids
}

func byNameAsc(a, b domain.Book) int {
	return cmp.Compare(a.Name, b.Name)
}

func (s *Store) syncLoading() {
	s.loadingSig.Update(func(bool) bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.loading
	})
}

func (s *Store) syncSorted() {
	s.sortedSig.Update(func([]string) []string {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return slices.Clone(s.sorted)
	})
}
