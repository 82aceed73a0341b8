package tasks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/ytbot/internal/models"
	tu "github.com/desertthunder/ytbot/internal/testing"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRandomSongsConfigPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "random_songs_config.json")

	if got := RandomSongsConfigPath(path); got != path {
		t.Errorf("expected %s, got %s", path, got)
	}

	custom := filepath.Join(dir, "custom_random_songs_config.json")
	writeJSON(t, custom, []models.RandomSongsSource{})
	if got := RandomSongsConfigPath(path); got != custom {
		t.Errorf("expected custom config %s, got %s", custom, got)
	}
}

func TestConfigureRandomSongs(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "random_songs")
	cfg := filepath.Join(dir, "random_songs_config.json")

	provider := tu.NewMockProvider(dir)
	provider.Playlists["https://www.youtube.com/playlist?list=PLA"] = []models.Descriptor{tu.Track("a1", "A1"), tu.Track("a2", "A2")}
	provider.Playlists["https://www.youtube.com/playlist?list=PLB"] = []models.Descriptor{tu.Track("b1", "B1")}

	writeJSON(t, cfg, []models.RandomSongsSource{
		{Artist: "alpha", PlaylistURL: "https://www.youtube.com/playlist?list=PLA"},
		{Artist: "beta", PlaylistURL: "https://www.youtube.com/playlist?list=PLB"},
	})

	total, err := ConfigureRandomSongs(context.Background(), nil, provider, cfg, out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 songs, got %d", total)
	}
	tu.AssertFileExists(t, filepath.Join(out, "alpha.json"))
	tu.AssertFileExists(t, filepath.Join(out, "beta.json"))

	t.Run("missing config", func(t *testing.T) {
		if _, err := ConfigureRandomSongs(context.Background(), nil, provider, filepath.Join(dir, "nope.json"), out); err == nil {
			t.Error("expected error for missing config")
		}
	})

	t.Run("incomplete entry", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "random_songs_config.json")
		writeJSON(t, bad, []models.RandomSongsSource{{Artist: "alpha"}})
		if _, err := ConfigureRandomSongs(context.Background(), nil, provider, bad, out); err == nil {
			t.Error("expected error for entry without playlist_url")
		}
	})
}

func TestLoadRandomSongs(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, filepath.Join(dir, "alpha.json"), []models.Descriptor{tu.Track("a1", "A1"), tu.Track("a2", "A2"), tu.Track("shared", "S")})
	writeJSON(t, filepath.Join(dir, "beta.json"), []models.Descriptor{tu.Track("b1", "B1"), tu.Track("shared", "S")})
	tu.WriteFile(t, dir, "notes.txt", 4)

	tests := []struct {
		name string
		n    int
		want int
	}{
		{name: "all songs deduplicated", n: 10, want: 4},
		{name: "capped", n: 2, want: 2},
		{name: "default count", n: 0, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadRandomSongs(dir, tt.n)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d songs, got %d", tt.want, len(got))
			}
		})
	}

	t.Run("missing directory", func(t *testing.T) {
		got, err := LoadRandomSongs(filepath.Join(dir, "nope"), 5)
		if err != nil || len(got) != 0 {
			t.Errorf("expected empty result, got %v (%v)", got, err)
		}
	})
}
