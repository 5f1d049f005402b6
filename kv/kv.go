// Package kv defines the persistence contract the scheduler runs on.
// The scheduler only needs a flat string key space: lifecycle state,
// job type, sanitized params, encoded checkpoints, and trigger records
// are all stored as individual keys. Backends live in subpackages.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is the minimal contract every backend satisfies.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set writes value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Guard is an optional capability for atomic state transitions. The
// scheduler uses it for the overlap guard when the backend provides
// it, falling back to a non-atomic check-then-set otherwise.
type Guard interface {
	// CompareAndSwap writes new under key only if the current value
	// equals old. An empty old means set-if-absent. It reports whether
	// the swap happened.
	CompareAndSwap(ctx context.Context, key, old, new string) (bool, error)
}
