// Package redis implements kv.Store on Redis. Values are plain string
// keys; compare-and-swap runs as a Lua script so the overlap guard is
// atomic across processes.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/stintlabs/stint/kv"
)

// Compile-time interface checks.
var (
	_ kv.Store = (*Store)(nil)
	_ kv.Guard = (*Store)(nil)
)

// casScript swaps the value only when the current value matches ARGV[1].
// An empty ARGV[1] means the key must not exist.
var casScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if ARGV[1] == "" then
	if current then return 0 end
else
	if not current or current ~= ARGV[1] then return 0 end
end
redis.call("SET", KEYS[1], ARGV[2])
return 1
`)

// Store implements kv.Store backed by Redis.
type Store struct {
	client redis.Cmdable
}

// New creates a new Redis-backed store. The caller owns the Redis
// client lifecycle.
func New(client redis.Cmdable) *Store {
	return &Store{client: client}
}

// Client returns the underlying Redis client.
func (s *Store) Client() redis.Cmdable { return s.client }

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get returns the value for key, or kv.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Set writes value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// CompareAndSwap implements kv.Guard via a Lua script.
func (s *Store) CompareAndSwap(ctx context.Context, key, old, new string) (bool, error) {
	n, err := casScript.Run(ctx, s.client, []string{key}, old, new).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
