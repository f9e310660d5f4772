package storage

import (
	"context"
	"sync"
)

// Memory keeps the cart for the lifetime of the process.
type Memory struct {
	mu      sync.RWMutex
	payload string
}

// NewMemory starts from payload; pass "" for nothing saved.
func NewMemory(payload string) *Memory {
	return &Memory{payload: payload}
}

func (m *Memory) Load(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payload, nil
}

func (m *Memory) Save(_ context.Context, json string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = json
	return nil
}
