package kvstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store implementation. It backs tests and
// database-less development runs; contents do not survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory key-value store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the values for the given keys. Absent keys are omitted.
func (m *MemoryStore) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if v, ok := m.values[key]; ok {
			result[key] = v
		}
	}
	return result, nil
}

// Set writes all given pairs.
func (m *MemoryStore) Set(ctx context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

// Remove deletes the given keys. Removing absent keys is not an error.
func (m *MemoryStore) Remove(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}
