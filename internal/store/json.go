package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONStore persists its mapping to <dir>/<name>.json.
type JSONStore[V any] struct {
	name string
	path string
	mu   sync.Mutex
}

// NewJSONStore creates a store backed by <dir>/<name>.json. The file is created on first save.
func NewJSONStore[V any](dir, name string) *JSONStore[V] {
	return &JSONStore[V]{name: name, path: filepath.Join(dir, name+".json")}
}

func (s *JSONStore[V]) Name() string { return s.name }

// Path returns the backing file.
func (s *JSONStore[V]) Path() string { return s.path }

func (s *JSONStore[V]) Load() (map[string]V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *JSONStore[V]) Save(m map[string]V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(m)
}

// Reset replaces the file contents with an empty object.
func (s *JSONStore[V]) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(map[string]V{})
}

func (s *JSONStore[V]) Update(fn func(map[string]V) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(m); err != nil {
		return err
	}
	return s.save(m)
}

func (s *JSONStore[V]) load() (map[string]V, error) {
	m := make(map[string]V)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return m, nil
	}

	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return m, nil
}

// save writes to a temp file in the same directory and renames it over the target.
func (s *JSONStore[V]) save(m map[string]V) error {
	if m == nil {
		m = map[string]V{}
	}

	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.name, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+s.name+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", s.name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", s.name, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
