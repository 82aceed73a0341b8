package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/ytbot/internal/models"
)

func openBackends(t *testing.T, name string) map[string]Store[models.Descriptor] {
	t.Helper()

	dir := t.TempDir()
	db, err := OpenBolt(filepath.Join(dir, "ytbot.bolt"))
	if err != nil {
		t.Fatalf("failed to open bolt db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	stores := make(map[string]Store[models.Descriptor])
	for _, backend := range []string{"json", "bolt"} {
		s, err := Open[models.Descriptor](backend, dir, db, name)
		if err != nil {
			t.Fatalf("failed to open %s store: %v", backend, err)
		}
		stores[backend] = s
	}
	return stores
}

func TestStoreBackends(t *testing.T) {
	for backend, s := range openBackends(t, "downloads") {
		t.Run(backend, func(t *testing.T) {
			t.Run("empty store loads empty map", func(t *testing.T) {
				m, err := s.Load()
				if err != nil {
					t.Fatalf("Load failed: %v", err)
				}
				if len(m) != 0 {
					t.Errorf("expected empty map, got %v", m)
				}
			})

			t.Run("Save then Load", func(t *testing.T) {
				want := map[string]models.Descriptor{
					"abc": {ID: "abc", Title: "Song A", URL: models.CanonicalURL("abc")},
					"def": {ID: "def", Title: "Song D", URL: models.CanonicalURL("def")},
				}
				if err := s.Save(want); err != nil {
					t.Fatalf("Save failed: %v", err)
				}

				got, err := s.Load()
				if err != nil {
					t.Fatalf("Load failed: %v", err)
				}
				if len(got) != len(want) {
					t.Fatalf("expected %d entries, got %d", len(want), len(got))
				}
				for k, v := range want {
					if got[k] != v {
						t.Errorf("entry %s: expected %+v, got %+v", k, v, got[k])
					}
				}
			})

			t.Run("Save replaces contents", func(t *testing.T) {
				if err := s.Save(map[string]models.Descriptor{"only": {ID: "only"}}); err != nil {
					t.Fatalf("Save failed: %v", err)
				}
				got, _ := s.Load()
				if _, ok := got["abc"]; ok || len(got) != 1 {
					t.Errorf("expected only the new entry, got %v", got)
				}
			})

			t.Run("Update aborts on error", func(t *testing.T) {
				boom := errors.New("boom")
				err := s.Update(func(m map[string]models.Descriptor) error {
					m["ghost"] = models.Descriptor{ID: "ghost"}
					return boom
				})
				if !errors.Is(err, boom) {
					t.Fatalf("expected callback error, got %v", err)
				}
				got, _ := s.Load()
				if _, ok := got["ghost"]; ok {
					t.Error("failed update should not be persisted")
				}
			})

			t.Run("Reset", func(t *testing.T) {
				if err := s.Reset(); err != nil {
					t.Fatalf("Reset failed: %v", err)
				}
				got, _ := s.Load()
				if len(got) != 0 {
					t.Errorf("expected empty store after reset, got %v", got)
				}
			})

			t.Run("concurrent updates", func(t *testing.T) {
				var wg sync.WaitGroup
				for i := range 20 {
					wg.Add(1)
					go func() {
						defer wg.Done()
						id := string(rune('a' + i))
						err := s.Update(func(m map[string]models.Descriptor) error {
							m[id] = models.Descriptor{ID: id}
							return nil
						})
						if err != nil {
							t.Errorf("Update failed: %v", err)
						}
					}()
				}
				wg.Wait()

				got, _ := s.Load()
				if len(got) != 20 {
					t.Errorf("expected 20 entries after concurrent updates, got %d", len(got))
				}
			})
		})
	}
}

func TestJSONStoreFile(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONStore[models.Settings](dir, "config")

	if err := s.Save(map[string]models.Settings{DataKey: {Volume: 50}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if s.Path() != filepath.Join(dir, "config.json") {
		t.Errorf("unexpected path %s", s.Path())
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("failed to read store file: %v", err)
	}
	if !strings.Contains(string(data), "\n    \"data\": {\n        \"volume\": 50") {
		t.Errorf("expected 4-space indented json, got:\n%s", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files should not be left behind, found %d entries", len(entries))
	}

	t.Run("corrupt file", func(t *testing.T) {
		if err := os.WriteFile(s.Path(), []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Load(); err == nil {
			t.Error("expected decode error")
		}
	})

	t.Run("blank file", func(t *testing.T) {
		if err := os.WriteFile(s.Path(), []byte("  \n"), 0644); err != nil {
			t.Fatal(err)
		}
		m, err := s.Load()
		if err != nil || len(m) != 0 {
			t.Errorf("expected empty map, got %v, %v", m, err)
		}
	})
}

func TestOpen(t *testing.T) {
	if _, err := Open[models.Settings]("bolt", t.TempDir(), nil, "config"); err == nil {
		t.Error("bolt backend without a db should fail")
	}
	if _, err := Open[models.Settings]("redis", t.TempDir(), nil, "config"); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestRegistry(t *testing.T) {
	dir := t.TempDir()
	a := NewJSONStore[models.Descriptor](dir, "a")
	b := NewJSONStore[models.Descriptor](dir, "b")
	_ = a.Save(map[string]models.Descriptor{"x": {ID: "x"}})
	_ = b.Save(map[string]models.Descriptor{"y": {ID: "y"}})

	hookCalled := false
	r := NewRegistry()
	r.Register(a, b)
	r.RegisterFunc("failing", func() error { return errors.New("disk full") })
	r.RegisterFunc("hook", func() error { hookCalled = true; return nil })

	if got := strings.Join(r.Names(), ","); got != "a,b,failing,hook" {
		t.Errorf("unexpected names %s", got)
	}

	var reset []string
	err := r.ResetAll(func(name string) { reset = append(reset, name) })
	if err == nil || !strings.Contains(err.Error(), "failing") {
		t.Errorf("expected joined error naming the failing cache, got %v", err)
	}
	if strings.Join(reset, ",") != "a,b,hook" {
		t.Errorf("expected remaining caches to be reset, got %v", reset)
	}
	if !hookCalled {
		t.Error("hook should run after a failing entry")
	}

	for _, s := range []*JSONStore[models.Descriptor]{a, b} {
		m, _ := s.Load()
		if len(m) != 0 {
			t.Errorf("%s should be empty after reset", s.Name())
		}
	}
}
