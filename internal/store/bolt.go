package store

import (
	"encoding/json"
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"
)

// BoltStore keeps its mapping in the bucket <name> of a shared bbolt database.
// Values are stored JSON-encoded.
type BoltStore[V any] struct {
	db     *bolt.DB
	name   string
	bucket []byte
	mu     sync.Mutex
}

// NewBoltStore creates the bucket for name if it does not exist yet.
func NewBoltStore[V any](db *bolt.DB, name string) (*BoltStore[V], error) {
	bucket := []byte(name)
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket %s: %w", name, err)
	}
	return &BoltStore[V]{db: db, name: name, bucket: bucket}, nil
}

func (s *BoltStore[V]) Name() string { return s.name }

func (s *BoltStore[V]) Load() (map[string]V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]V)
	err := s.db.View(func(tx *bolt.Tx) error {
		return s.read(tx, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *BoltStore[V]) Save(m map[string]V) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		return s.write(tx, m)
	})
}

func (s *BoltStore[V]) Reset() error {
	return s.Save(nil)
}

// Update runs fn inside a single read-write transaction.
func (s *BoltStore[V]) Update(fn func(map[string]V) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		m := make(map[string]V)
		if err := s.read(tx, m); err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
		return s.write(tx, m)
	})
}

func (s *BoltStore[V]) read(tx *bolt.Tx, m map[string]V) error {
	b := tx.Bucket(s.bucket)
	if b == nil {
		return nil
	}
	return b.ForEach(func(k, v []byte) error {
		var value V
		if err := json.Unmarshal(v, &value); err != nil {
			return fmt.Errorf("failed to decode %s/%s: %w", s.name, k, err)
		}
		m[string(k)] = value
		return nil
	})
}

// write replaces the bucket contents with m.
func (s *BoltStore[V]) write(tx *bolt.Tx, m map[string]V) error {
	if tx.Bucket(s.bucket) != nil {
		if err := tx.DeleteBucket(s.bucket); err != nil {
			return fmt.Errorf("failed to clear bucket %s: %w", s.name, err)
		}
	}

	b, err := tx.CreateBucket(s.bucket)
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.name, err)
	}

	for k, v := range m {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s/%s: %w", s.name, k, err)
		}
		if err := b.Put([]byte(k), data); err != nil {
			return err
		}
	}
	return nil
}
