package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sessync/internal/core/ports/driven"
)

// Ensure KVStore implements the interface.
var _ driven.KVStore = (*KVStore)(nil)

// KVStore is an in-memory implementation of driven.KVStore.
type KVStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewKVStore creates an empty key/value store.
func NewKVStore() *KVStore {
	return &KVStore{values: make(map[string]string)}
}

// Get returns the requested keys, or every entry when none are given.
func (s *KVStore) Get(_ context.Context, keys ...string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string)
	if len(keys) == 0 {
		for k, v := range s.values {
			out[k] = v
		}
		return out, nil
	}
	for _, k := range keys {
		if v, ok := s.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// Set upserts entries.
func (s *KVStore) Set(_ context.Context, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range entries {
		s.values[k] = v
	}
	return nil
}

// Remove deletes keys.
func (s *KVStore) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// Clear deletes every entry.
func (s *KVStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	return nil
}
