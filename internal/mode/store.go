package mode

import (
	"errors"
	"fmt"

	"github.com/fjod/go_cart/bookshop/internal/domain"
	"github.com/fjod/go_cart/bookshop/internal/reactive"
)

var ErrUnknownMode = errors.New("unknown mode")

// Store tracks which page is active and which book, if any, is selected.
type Store struct {
	state *reactive.Signal[domain.NavigationState]
}

func NewStore() *Store {
	return &Store{
		state: reactive.New(
			domain.NavigationState{Mode: domain.ModeBooks},
			reactive.Comparable[domain.NavigationState](),
		),
	}
}

func (s *Store) State() reactive.Accessor[domain.NavigationState] {
	return s.state
}

// SetMode replaces the whole state from a routing event.
func (s *Store) SetMode(mode domain.Mode, params map[string]string, pathname string) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	s.state.Set(domain.NavigationState{
		Mode:     mode,
		ID:       params["id"],
		Pathname: pathname,
	})
	return nil
}

func ParseMode(raw string) (domain.Mode, error) {
	mode := domain.Mode(raw)
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
	}
	return mode, nil
}
