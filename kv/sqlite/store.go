// Package sqlite implements kv.Store on SQLite via database/sql and
// the mattn/go-sqlite3 driver. Suited to single-process deployments
// that want durability without an external database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stintlabs/stint/kv"
)

// Compile-time interface checks.
var (
	_ kv.Store = (*Store)(nil)
	_ kv.Guard = (*Store)(nil)
)

// Store is a SQLite implementation of kv.Store.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path. Use ":memory:" for an
// ephemeral store.
func New(path string) (*Store, error) {
	// Serialized access and a busy timeout keep concurrent writers
	// from tripping over SQLITE_BUSY.
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("stint/sqlite: open %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// NewFromDB creates a store from an existing database handle. The
// caller owns the handle lifecycle.
func NewFromDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the backing table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS stint_kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("stint/sqlite: migrate: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value for key, or kv.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM stint_kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("stint/sqlite: get %q: %w", key, err)
	}
	return value, nil
}

// Set writes value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stint_kv (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("stint/sqlite: set %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM stint_kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("stint/sqlite: delete %q: %w", key, err)
	}
	return nil
}

// CompareAndSwap implements kv.Guard. An empty old means set-if-absent.
func (s *Store) CompareAndSwap(ctx context.Context, key, old, new string) (bool, error) {
	var res sql.Result
	var err error
	if old == "" {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO stint_kv (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO NOTHING
		`, key, new)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE stint_kv SET value = ? WHERE key = ? AND value = ?
		`, new, key, old)
	}
	if err != nil {
		return false, fmt.Errorf("stint/sqlite: cas %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("stint/sqlite: cas %q: %w", key, err)
	}
	return n == 1, nil
}
