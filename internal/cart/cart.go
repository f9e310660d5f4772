package cart

import (
	"context"

	"github.com/fjod/go_cart/bookshop/internal/domain"
)

// Catalog is the part of the catalog store the cart reads.
// Consumers define this interface, not the catalog package.
type Catalog interface {
	Book(id string) (domain.Book, bool)
	Err() error
}

// Storage keeps the cart between sessions. Load returns "" when nothing was saved.
type Storage interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, json string) error
}

// SendNotice delivers a user-facing message. It must not block.
type SendNotice func(text string)

// State is the persistence lifecycle of the cart.
type State int

const (
	Uninitialized State = iota
	AwaitingFirstCatalogLoad
	RestoringFromStorage
	Ready
)

func (s State) String() string {
	switch s {
	case AwaitingFirstCatalogLoad:
		return "awaiting-first-catalog-load"
	case RestoringFromStorage:
		return "restoring-from-storage"
	case Ready:
		return "ready"
	default:
		return "uninitialized"
	}
}

type item struct {
	bookID   string
	quantity int
}
