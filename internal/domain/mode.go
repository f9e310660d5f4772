package domain

type Mode string

const (
	ModeBooks      Mode = "books"
	ModeBookDetail Mode = "book-detail"
	ModeCart       Mode = "cart"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeBooks, ModeBookDetail, ModeCart:
		return true
	}
	return false
}

// NavigationState is replaced wholesale on every routing event.
type NavigationState struct {
	Mode     Mode   `json:"mode"`
	ID       string `json:"id,omitempty"`
	Pathname string `json:"pathname,omitempty"`
}
