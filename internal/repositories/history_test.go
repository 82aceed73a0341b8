package repositories

import (
	"errors"
	"testing"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/shared"
	tu "github.com/desertthunder/ytbot/internal/testing"
)

func TestHistoryRepository(t *testing.T) {
	t.Run("Record", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewHistoryRepository(db)
		entry, err := repo.Record(tu.Track("abc", "Song"))
		if err != nil {
			t.Fatalf("failed to record: %v", err)
		}

		if entry.ID == "" {
			t.Error("entry ID should be set")
		}
		if entry.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", entry.Sequence)
		}
		if entry.MediaID != "abc" || entry.Title != "Song" {
			t.Errorf("unexpected entry %+v", entry)
		}
	})

	t.Run("Record requires a media id", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := NewHistoryRepository(db).Record(models.Descriptor{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Recent is newest first", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewHistoryRepository(db)
		for _, id := range []string{"a", "b", "c", "a"} {
			if _, err := repo.Record(tu.Track(id, id)); err != nil {
				t.Fatalf("failed to record %s: %v", id, err)
			}
		}

		entries, err := repo.Recent(3)
		if err != nil {
			t.Fatalf("failed to list history: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}

		wantIDs := []string{"a", "c", "b"}
		for i, e := range entries {
			if e.MediaID != wantIDs[i] {
				t.Errorf("entry %d: expected %s, got %s", i, wantIDs[i], e.MediaID)
			}
			if i > 0 && e.Sequence >= entries[i-1].Sequence {
				t.Errorf("entries should be ordered by descending sequence")
			}
			if e.PlayedAt.IsZero() {
				t.Errorf("entry %d should have a played_at time", i)
			}
		}

		count, err := repo.Count("a")
		if err != nil || count != 2 {
			t.Errorf("expected a to be played twice, got %d (%v)", count, err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewHistoryRepository(db)
		_, _ = repo.Record(tu.Track("a", "A"))
		if err := repo.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}

		entries, _ := repo.Recent(10)
		if len(entries) != 0 {
			t.Errorf("expected empty history, got %d", len(entries))
		}

		next, err := repo.Record(tu.Track("b", "B"))
		if err != nil {
			t.Fatalf("failed to record: %v", err)
		}
		if next.Sequence != 2 {
			t.Errorf("sequence should keep increasing after clear, got %d", next.Sequence)
		}
	})
}
