// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/shared"
)

// MockProvider is a test double for [services.Provider].
//
// Descriptors are served from Catalog keyed by id; downloads write a small file named
// <id>.<Ext> into Dir. Gate, when set, blocks every download until it is closed.
type MockProvider struct {
	Dir       string
	Ext       string
	FileSize  int
	Catalog   map[string]models.Descriptor
	Playlists map[string][]models.Descriptor
	Results   []models.Descriptor
	Err       error
	Gate      chan struct{}

	// SkipWrite reports a successful download without writing a file.
	SkipWrite bool

	downloads atomic.Int32
	resolves  atomic.Int32
	mu        sync.Mutex
	refs      []string
}

// NewMockProvider serves ds and writes downloads into dir.
func NewMockProvider(dir string, ds ...models.Descriptor) *MockProvider {
	m := &MockProvider{Dir: dir, Ext: "webm", FileSize: 16, Catalog: make(map[string]models.Descriptor), Playlists: make(map[string][]models.Descriptor)}
	for _, d := range ds {
		m.Catalog[d.ID] = d
	}
	return m
}

// Track builds a descriptor with canonical URL and thumbnail.
func Track(id, title string) models.Descriptor {
	return models.Descriptor{ID: id, Title: title, URL: models.CanonicalURL(id), ThumbnailURL: models.ThumbnailFor(id)}
}

func (m *MockProvider) ResolveMetadata(ctx context.Context, ref string, download bool) (models.Descriptor, error) {
	m.mu.Lock()
	m.refs = append(m.refs, ref)
	m.mu.Unlock()

	if download {
		m.downloads.Add(1)
		if m.Gate != nil {
			select {
			case <-m.Gate:
			case <-ctx.Done():
				return models.Descriptor{}, ctx.Err()
			}
		}
	} else {
		m.resolves.Add(1)
	}

	if m.Err != nil {
		return models.Descriptor{}, shared.NewProviderError("mock", ref, m.Err)
	}

	d, ok := m.lookup(ref)
	if !ok {
		return models.Descriptor{}, shared.NewProviderError("mock", ref, fmt.Errorf("unknown reference %s", ref))
	}

	if download && !m.SkipWrite {
		path := filepath.Join(m.Dir, d.ID+"."+m.Ext)
		if err := os.WriteFile(path, make([]byte, m.FileSize), 0644); err != nil {
			return models.Descriptor{}, err
		}
	}
	return d, nil
}

func (m *MockProvider) ListPlaylistEntries(ctx context.Context, ref string) iter.Seq2[models.Descriptor, error] {
	return func(yield func(models.Descriptor, error) bool) {
		entries, ok := m.Playlists[ref]
		if !ok || len(entries) == 0 {
			yield(models.Descriptor{}, shared.NewProviderError("mock", ref, errors.New("playlist could be private/empty/invalid")))
			return
		}
		for _, d := range entries {
			if !yield(d, nil) {
				return
			}
		}
	}
}

func (m *MockProvider) Search(ctx context.Context, query string, max int) ([]models.Descriptor, error) {
	if m.Err != nil {
		return nil, shared.NewProviderError("mock search", query, m.Err)
	}
	if len(m.Results) > max {
		return m.Results[:max], nil
	}
	return m.Results, nil
}

// Downloads counts ResolveMetadata calls with download=true.
func (m *MockProvider) Downloads() int { return int(m.downloads.Load()) }

// Resolves counts metadata-only ResolveMetadata calls.
func (m *MockProvider) Resolves() int { return int(m.resolves.Load()) }

// Refs returns every reference passed to ResolveMetadata.
func (m *MockProvider) Refs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.refs...)
}

func (m *MockProvider) lookup(ref string) (models.Descriptor, bool) {
	if d, ok := m.Catalog[ref]; ok {
		return d, true
	}
	for _, d := range m.Catalog {
		if d.URL == ref || models.CanonicalURL(d.ID) == ref {
			return d, true
		}
	}
	return models.Descriptor{}, false
}

// WriteFile creates dir/name with size bytes and returns its path.
func WriteFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
