package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/services"
)

// DefaultRandomCount is how many songs random playback queues.
const DefaultRandomCount = 50

// RandomSongsConfigPath prefers custom_<name> next to the configured file when it exists.
func RandomSongsConfigPath(path string) string {
	custom := filepath.Join(filepath.Dir(path), "custom_"+filepath.Base(path))
	if _, err := os.Stat(custom); err == nil {
		return custom
	}
	return path
}

// ConfigureRandomSongs writes <outDir>/<artist>.json with the entries of each configured playlist.
func ConfigureRandomSongs(ctx context.Context, prog chan<- ProgressUpdate, provider services.Provider, configPath, outDir string) (int, error) {
	data, err := os.ReadFile(RandomSongsConfigPath(configPath))
	if err != nil {
		return 0, fmt.Errorf("failed to read random songs config: %w", err)
	}

	var sources []models.RandomSongsSource
	if err := json.Unmarshal(data, &sources); err != nil {
		return 0, fmt.Errorf("failed to parse random songs config: %w", err)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create random songs directory: %w", err)
	}

	total := 0
	for i, src := range sources {
		if src.Artist == "" || src.PlaylistURL == "" {
			return total, fmt.Errorf("random songs entry %d needs artist and playlist_url", i+1)
		}

		var songs []models.Descriptor
		for d, err := range provider.ListPlaylistEntries(ctx, src.PlaylistURL) {
			if err != nil {
				return total, err
			}
			songs = append(songs, d)
		}

		out, err := json.MarshalIndent(songs, "", "    ")
		if err != nil {
			return total, err
		}
		path := filepath.Join(outDir, src.Artist+".json")
		if err := os.WriteFile(path, out, 0644); err != nil {
			return total, fmt.Errorf("failed to write %s: %w", path, err)
		}

		total += len(songs)
		sendProgress(prog, randomSongsUpdate(i+1, len(sources), src.Artist, len(songs)))
	}
	return total, nil
}

// LoadRandomSongs reads every list in dir, shuffles them together and returns up to n songs.
func LoadRandomSongs(dir string, n int) ([]models.Descriptor, error) {
	if n <= 0 {
		n = DefaultRandomCount
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read random songs directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var all []models.Descriptor
	seen := make(map[string]bool)
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var songs []models.Descriptor
		if err := json.Unmarshal(data, &songs); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		for _, s := range songs {
			if s.ID == "" || seen[s.ID] {
				continue
			}
			seen[s.ID] = true
			all = append(all, s)
		}
	}

	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}
