package repositories

import (
	"fmt"
	"testing"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/store"
	tu "github.com/desertthunder/ytbot/internal/testing"
)

func newSearchResults(t *testing.T, max int) *SearchResults {
	t.Helper()
	return NewSearchResults(store.NewJSONStore[[]models.Descriptor](t.TempDir(), SearchResultsCacheName), max)
}

func TestSearchResults(t *testing.T) {
	t.Run("Append and Get", func(t *testing.T) {
		r := newSearchResults(t, 10)
		d := tu.Track("abc", "Song")

		if err := r.Append(d); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		got, ok := r.Get("abc")
		if !ok || got != d {
			t.Errorf("expected %+v, got %+v", d, got)
		}
		if _, ok := r.Get("missing"); ok {
			t.Error("unknown id should miss")
		}
	})

	t.Run("bounded with oldest dropped first", func(t *testing.T) {
		r := newSearchResults(t, 3)
		for i := range 5 {
			if err := r.Append(tu.Track(fmt.Sprintf("id%d", i), "Song")); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
		}

		if r.Len() != 3 {
			t.Errorf("expected 3 results, got %d", r.Len())
		}
		for _, id := range []string{"id0", "id1"} {
			if _, ok := r.Get(id); ok {
				t.Errorf("%s should have been dropped", id)
			}
		}
		for _, id := range []string{"id2", "id3", "id4"} {
			if _, ok := r.Get(id); !ok {
				t.Errorf("%s should be retained", id)
			}
		}
	})

	t.Run("Extend refreshes known ids", func(t *testing.T) {
		r := newSearchResults(t, 2)
		_ = r.Extend([]models.Descriptor{tu.Track("a", "A"), tu.Track("b", "B")})
		_ = r.Extend([]models.Descriptor{tu.Track("a", "A (remaster)"), tu.Track("c", "C")})

		if r.Len() != 2 {
			t.Fatalf("expected 2 results, got %d", r.Len())
		}
		if _, ok := r.Get("b"); ok {
			t.Error("b should be the oldest and dropped")
		}
		if got, _ := r.Get("a"); got.Title != "A (remaster)" {
			t.Errorf("expected refreshed title, got %s", got.Title)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		r := newSearchResults(t, 2)
		_ = r.Append(tu.Track("a", "A"))
		if err := r.Reset(); err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
		if r.Len() != 0 {
			t.Errorf("expected empty cache, got %d", r.Len())
		}
	})
}
