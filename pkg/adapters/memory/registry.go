package memory

import (
	"context"
	"sync"

	"github.com/aretw0/shellbridge/pkg/domain"
)

// Registry implements ports.Registry in memory.
// Safe for concurrent use.
type Registry struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewRegistry creates a new in-memory registry.
func NewRegistry() *Registry {
	return &Registry{
		data: make(map[string][]byte),
	}
}

// Write stores a copy of value.
func (r *Registry) Write(ctx context.Context, key string, value []byte) error {
	copied := append([]byte(nil), value...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = copied
	return nil
}

// Read returns a copy so callers can't mutate the stored bytes.
func (r *Registry) Read(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.data[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

// Delete removes the key.
func (r *Registry) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
	return nil
}

// List returns every stored key.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.data))
	for key := range r.data {
		keys = append(keys, key)
	}
	return keys, nil
}
