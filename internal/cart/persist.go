package cart

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/fjod/go_cart/bookshop/internal/domain"
	"go.uber.org/zap"
)

// onBooksLoading drives the persistence lifecycle. The first time the
// catalog finishes loading the saved cart is restored; later reloads only
// toggle the cart loading flag around the reload.
func (s *Store) onBooksLoading(booksLoading bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	if booksLoading {
		wasLoaded := !s.lastBooksLoading
		s.lastBooksLoading = true
		if wasLoaded {
			s.loading = true
		}
		s.mu.Unlock()
		s.syncLoading()
		return
	}

	if !s.lastBooksLoading {
		s.mu.Unlock()
		return
	}
	s.lastBooksLoading = false

	switch s.state {
	case Ready:
		s.loading = false
		// availability may have changed, and saves were held back during the reload
		s.persistLocked()
		s.mu.Unlock()
		s.syncLoading()
		return
	case RestoringFromStorage:
		// restore clears the flag when it lands
		s.mu.Unlock()
		return
	}

	if err := s.books.Err(); err != nil {
		// nothing to map the saved cart onto; restore after the first good load
		s.loading = false
		s.mu.Unlock()
		s.logger.Warn("catalog unavailable, cart restore postponed", zap.Error(err))
		s.syncLoading()
		return
	}

	if s.storage == nil {
		s.state = Ready
		s.loading = false
		s.mu.Unlock()
		s.syncLoading()
		return
	}

	s.state = RestoringFromStorage
	s.wg.Add(1)
	s.mu.Unlock()

	go s.restore()
}

func (s *Store) restore() {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.ctx, storageTimeout)
	raw, err := s.storage.Load(ctx)
	cancel()

	var saved []domain.ItemJSON
	if err != nil {
		s.logger.Error("cart load failed, starting empty", zap.Error(err))
	} else {
		saved = decodeItems(raw, s.logger)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	items := make([]item, 0, len(saved))
	for _, it := range saved {
		if _, ok := s.books.Book(it.ID); !ok {
			continue
		}
		if it.Quantity <= 0 || slices.ContainsFunc(items, func(existing item) bool { return existing.bookID == it.ID }) {
			continue
		}
		items = append(items, item{bookID: it.ID, quantity: it.Quantity})
	}

	s.items = items
	s.state = Ready
	s.revision++
	// storage already holds this cart
	s.saved = s.projectionLocked()
	s.loading = s.lastBooksLoading
	s.mu.Unlock()

	s.logger.Info("cart restored", zap.Int("saved", len(saved)), zap.Int("lines", len(items)))
	s.syncRevision()
	s.syncLoading()
}

// decodeItems treats an absent or malformed payload as an empty cart.
func decodeItems(raw string, logger *zap.Logger) []domain.ItemJSON {
	if raw == "" {
		return nil
	}

	var items []domain.ItemJSON
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.Warn("discarding malformed saved cart", zap.Error(err))
		return nil
	}
	return items
}

// persistLocked queues a save when the persisted projection changed.
// Saves are held back until the cart is restored and the catalog is not reloading.
// Must be called with s.mu held.
func (s *Store) persistLocked() {
	if s.storage == nil || s.state != Ready || s.loading {
		return
	}

	projection := s.projectionLocked()
	if projection == s.saved {
		return
	}
	s.saved = projection
	s.pending = projection
	s.hasPending = true

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// projectionLocked must be called with s.mu held.
func (s *Store) projectionLocked() string {
	data, err := json.Marshal(projectionOf(s.linesLocked()))
	if err != nil {
		// ItemJSON always marshals
		s.logger.Error("marshal cart failed", zap.Error(err))
		return s.saved
	}
	return string(data)
}

// saveLoop writes queued projections one at a time, in the order they were produced.
func (s *Store) saveLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.wake:
			s.flush()
		case <-s.done:
			s.flush()
			return
		}
	}
}

func (s *Store) flush() {
	s.mu.Lock()
	payload, ok := s.pending, s.hasPending
	s.hasPending = false
	s.mu.Unlock()

	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	if err := s.storage.Save(ctx, payload); err != nil {
		s.logger.Error("cart save failed", zap.Error(err))
	}
}
