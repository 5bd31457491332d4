package storage

import (
	"context"
	"sync"
)

// MemoryKV keeps values in process memory. It is used when no durable
// backend is configured and in tests.
type MemoryKV struct {
	mu     sync.Mutex
	items  map[string]string
	closed bool
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{items: make(map[string]string)}
}

// NewMemoryKVFrom seeds a store with initial values.
func NewMemoryKVFrom(seed map[string]string) *MemoryKV {
	kv := NewMemoryKV()
	for k, v := range seed {
		kv.items[k] = v
	}
	return kv
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.items[key] = value
	return nil
}

func (m *MemoryKV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
