package reactive

import (
	"slices"
	"sync"
)

// Accessor is the read-only view of a Signal handed to consumers.
type Accessor[T any] interface {
	Get() T
	Subscribe(fn func(T)) (unsubscribe func())
}

type Option[T any] func(*Signal[T])

// WithEqual makes Set and Update skip notification when the new value equals the current one.
func WithEqual[T any](equal func(a, b T) bool) Option[T] {
	return func(s *Signal[T]) {
		s.equal = equal
	}
}

// Comparable is the equality used for comparable value types.
func Comparable[T comparable]() Option[T] {
	return WithEqual(func(a, b T) bool { return a == b })
}

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// Signal holds a value and pushes every change to its subscribers.
//
// Subscribers run synchronously after the value has been stored, in
// registration order. Changes made while a notification round is running
// (from a subscriber, or from another goroutine) are queued and delivered by
// the goroutine already draining, so every subscriber sees every transition
// in the order the values were stored.
type Signal[T any] struct {
	mu       sync.RWMutex
	value    T
	equal    func(a, b T) bool
	subs     []subscription[T]
	nextID   uint64
	pending  []T
	draining bool
}

func New[T any](initial T, opts ...Option[T]) *Signal[T] {
	s := &Signal[T]{value: initial}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *Signal[T]) Set(v T) {
	s.Update(func(T) T { return v })
}

// Update stores fn(current). fn runs with the signal locked and must not touch this signal.
func (s *Signal[T]) Update(fn func(current T) T) {
	s.mu.Lock()
	next := fn(s.value)
	if s.equal != nil && s.equal(s.value, next) {
		s.mu.Unlock()
		return
	}
	s.value = next
	s.pending = append(s.pending, next)
	if s.draining {
		s.mu.Unlock()
		return
	}

	s.draining = true
	for len(s.pending) > 0 {
		v := s.pending[0]
		s.pending = s.pending[1:]
		subs := slices.Clone(s.subs)
		s.mu.Unlock()

		for _, sub := range subs {
			sub.fn(v)
		}

		s.mu.Lock()
	}
	s.pending = nil
	s.draining = false
	s.mu.Unlock()
}

func (s *Signal[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.subs = slices.DeleteFunc(s.subs, func(sub subscription[T]) bool {
				return sub.id == id
			})
		})
	}
}
