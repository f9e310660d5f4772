package http

import (
	"net/http"

	"github.com/fjod/go_cart/bookshop/internal/domain"
)

// StateHandler exposes the notification queue and navigation state.
type StateHandler struct{}

func NewStateHandler() *StateHandler {
	return &StateHandler{}
}

func (h *StateHandler) Toast(w http.ResponseWriter, r *http.Request) {
	s, ok := shopFrom(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, struct {
		domain.ToastState
		Phase string `json:"phase"`
	}{
		ToastState: s.Toast().State().Get(),
		Phase:      s.Toast().Phase().String(),
	})
}

func (h *StateHandler) Mode(w http.ResponseWriter, r *http.Request) {
	s, ok := shopFrom(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.Mode().State().Get())
}
