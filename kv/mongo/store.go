// Package mongo implements kv.Store on MongoDB. Each key is one
// document keyed by _id; compare-and-swap runs as a conditional
// replace so the overlap guard is atomic.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/stintlabs/stint/kv"
)

// colKV is the backing collection name.
const colKV = "stint_kv"

// Compile-time interface checks.
var (
	_ kv.Store = (*Store)(nil)
	_ kv.Guard = (*Store)(nil)
)

type document struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

// Store is a MongoDB implementation of kv.Store. The caller owns the
// client lifecycle; Store never closes it.
type Store struct {
	col *mongod.Collection
}

// New creates a new MongoDB store on the given database.
func New(db *mongod.Database) *Store {
	return &Store{col: db.Collection(colKV)}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.col.Database().Client().Ping(ctx, nil)
}

// Get returns the value for key, or kv.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var doc document
	err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongod.ErrNoDocuments) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("stint/mongo: get %q: %w", key, err)
	}
	return doc.Value, nil
}

// Set writes value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.col.ReplaceOne(ctx,
		bson.M{"_id": key},
		document{Key: key, Value: value},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("stint/mongo: set %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return fmt.Errorf("stint/mongo: delete %q: %w", key, err)
	}
	return nil
}

// CompareAndSwap implements kv.Guard. An empty old means set-if-absent.
func (s *Store) CompareAndSwap(ctx context.Context, key, old, new string) (bool, error) {
	if old == "" {
		_, err := s.col.InsertOne(ctx, document{Key: key, Value: new})
		if mongod.IsDuplicateKeyError(err) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("stint/mongo: cas %q: %w", key, err)
		}
		return true, nil
	}

	res, err := s.col.ReplaceOne(ctx,
		bson.M{"_id": key, "value": old},
		document{Key: key, Value: new},
	)
	if err != nil {
		return false, fmt.Errorf("stint/mongo: cas %q: %w", key, err)
	}
	return res.ModifiedCount == 1, nil
}
