package local

import (
	"context"
	"sync"
)

// Memory is an in-process Store, used by tests and dry runs.
type Memory struct {
	mu sync.RWMutex
	kv map[string]string
}

// NewMemory returns a Memory store seeded with kv (which may be nil).
func NewMemory(kv map[string]string) *Memory {
	m := &Memory{kv: make(map[string]string, len(kv))}
	for k, v := range kv {
		m.kv[k] = v
	}
	return m
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kv[key]
	return v, ok, nil
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	return nil
}
