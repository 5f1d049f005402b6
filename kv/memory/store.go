// Package memory provides a fully in-memory kv.Store. Safe for
// concurrent access. Intended for unit testing and development.
package memory

import (
	"context"
	"sync"

	"github.com/stintlabs/stint/kv"
)

// Compile-time interface checks.
var (
	_ kv.Store = (*Store)(nil)
	_ kv.Guard = (*Store)(nil)
)

// Store is a mutex-protected map.
type Store struct {
	mu   sync.RWMutex
	data map[string]string
}

// New returns a new empty Store.
func New() *Store {
	return &Store{data: make(map[string]string)}
}

// Get returns the value for key, or kv.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return "", kv.ErrNotFound
	}
	return v, nil
}

// Set writes value under key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// CompareAndSwap implements kv.Guard. An empty old means set-if-absent.
func (s *Store) CompareAndSwap(_ context.Context, key, old, new string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.data[key]
	if old == "" {
		if exists {
			return false, nil
		}
	} else if !exists || current != old {
		return false, nil
	}
	s.data[key] = new
	return true, nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
