// Package store provides the durable keyed mappings every ytbot cache is built on.
//
// A [Store] loads and saves a whole map[string]V at once under a per-store lock.
// Two backends exist: [JSONStore] writes one pretty-printed file per cache, and
// [BoltStore] keeps one bucket per cache inside a shared bbolt database.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// DataKey is the key used by caches that persist a single value.
const DataKey = "data"

// Store is a named, durable map from string keys to values of type V.
type Store[V any] interface {
	Name() string
	Load() (map[string]V, error)
	Save(map[string]V) error
	Reset() error
	// Update loads the mapping, applies fn and saves the result while holding the store lock.
	// Nothing is saved when fn returns an error.
	Update(fn func(map[string]V) error) error
}

// Open returns the store for name using the configured backend ("json" or "bolt").
//
// dir is used by the json backend, db by the bolt backend.
func Open[V any](backend, dir string, db *bolt.DB, name string) (Store[V], error) {
	switch strings.ToLower(backend) {
	case "", "json":
		return NewJSONStore[V](dir, name), nil
	case "bolt":
		if db == nil {
			return nil, fmt.Errorf("bolt backend requested for %s without a database", name)
		}
		return NewBoltStore[V](db, name)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// OpenBolt opens (creating if needed) the bbolt database shared by all bolt stores.
func OpenBolt(path string) (*bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	return db, nil
}
