package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/services"
	"github.com/desertthunder/ytbot/internal/shared"
	"github.com/desertthunder/ytbot/internal/store"
)

// DownloadsCacheName is the store name of the descriptor cache.
const DownloadsCacheName = "downloads"

// partialSuffixes mark files yt-dlp is still writing.
var partialSuffixes = []string{".part", ".ytdl", ".temp"}

// Fetcher materializes a descriptor into the download folder.
type Fetcher interface {
	Fetch(ctx context.Context, url, id string) (models.FetchResult, error)
}

// DescriptorCache maps media ids to descriptors and keeps that mapping consistent with the
// files in the download folder. Every read reconciles both sides.
type DescriptorCache struct {
	store    store.Store[models.CacheEntry]
	dir      string
	resolver services.Resolver
	fetcher  Fetcher
	logger   *log.Logger
	now      func() time.Time
}

// NewDescriptorCache creates the download folder if needed.
//
// The fetcher is attached later with [DescriptorCache.SetFetcher] since the dispatcher itself depends on the cache.
func NewDescriptorCache(s store.Store[models.CacheEntry], dir string, resolver services.Resolver, logger *log.Logger) (*DescriptorCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download folder: %w", err)
	}
	return &DescriptorCache{
		store:    s,
		dir:      dir,
		resolver: resolver,
		logger:   shared.ComponentLogger(logger, DownloadsCacheName),
		now:      time.Now,
	}, nil
}

func (c *DescriptorCache) SetFetcher(f Fetcher) {
	c.fetcher = f
}

func (c *DescriptorCache) Name() string { return DownloadsCacheName }

// Dir returns the download folder.
func (c *DescriptorCache) Dir() string { return c.dir }

// FileFor returns the downloaded file for id, ignoring partial downloads.
// When several files match, the most recently modified one wins.
func (c *DescriptorCache) FileFor(id string) (string, bool) {
	if id == "" {
		return "", false
	}

	matches, err := filepath.Glob(filepath.Join(c.dir, escapeGlob(id)+".*"))
	if err != nil {
		c.logger.Error("failed to glob download folder", "id", id, "error", err)
		return "", false
	}

	var (
		best    string
		bestMod time.Time
		found   int
	)
	for _, m := range matches {
		if IsPartialDownload(m) {
			continue
		}
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		found++
		if best == "" || info.ModTime().After(bestMod) {
			best, bestMod = m, info.ModTime()
		}
	}

	if found > 1 {
		c.logger.Warn("multiple files for id, using newest", "id", id, "file", best, "count", found)
	}
	return best, best != ""
}

// Get returns the descriptor for id after reconciling the row with the download folder.
//
// A row without a file is deleted; a file without a row is re-resolved through the provider
// and persisted. Repair failures are logged and reported as a miss.
func (c *DescriptorCache) Get(ctx context.Context, id string) (models.Descriptor, bool) {
	rows, err := c.store.Load()
	if err != nil {
		c.logger.Error("failed to load downloads cache", "error", err)
		return models.Descriptor{}, false
	}

	entry, hasRow := rows[id]
	_, hasFile := c.FileFor(id)

	switch {
	case hasRow && hasFile:
		return entry.Descriptor, true
	case hasRow:
		c.logger.Debug("database out of sync, removing", "id", id)
		if err := c.deleteRow(id); err != nil {
			c.logger.Error("failed to remove stale row", "id", id, "error", err)
		}
		return models.Descriptor{}, false
	case hasFile:
		c.logger.Debug("database out of sync, adding", "id", id)
		if c.resolver == nil {
			return models.Descriptor{}, false
		}
		d, err := c.resolver.ResolveMetadata(ctx, models.CanonicalURL(id), false)
		if err != nil {
			c.logger.Error("failed to resolve orphaned file", "id", id, "error", err)
			return models.Descriptor{}, false
		}
		d.ID = id
		if err := c.put(d); err != nil {
			c.logger.Error("failed to persist orphaned file", "id", id, "error", err)
			return models.Descriptor{}, false
		}
		return d, true
	default:
		return models.Descriptor{}, false
	}
}

// Add persists d, fetching its file first when none exists.
func (c *DescriptorCache) Add(ctx context.Context, d models.Descriptor) error {
	if _, ok := c.FileFor(d.ID); !ok {
		if c.fetcher == nil {
			return fmt.Errorf("%w: no file for %s and no fetcher configured", shared.ErrInconsistentCache, d.ID)
		}
		c.logger.Debug("file system out of sync, downloading", "id", d.ID)
		if _, err := c.fetcher.Fetch(ctx, d.URL, d.ID); err != nil {
			return err
		}
	}

	if err := c.put(d); err != nil {
		return err
	}
	c.logger.Debug("added", "id", d.ID)
	return nil
}

// Register persists d for a file that is already on disk. It never fetches.
func (c *DescriptorCache) Register(d models.Descriptor) error {
	if _, ok := c.FileFor(d.ID); !ok {
		return fmt.Errorf("%w: %s has no file in %s", shared.ErrInconsistentCache, d.ID, c.dir)
	}
	return c.put(d)
}

// Remove deletes the file and the row for id. Either may be missing.
func (c *DescriptorCache) Remove(id string) error {
	if file, ok := c.FileFor(id); ok {
		c.logger.Debug("deleting file", "file", file)
		if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete %s: %w", file, err)
		}
	}

	if err := c.deleteRow(id); err != nil {
		return err
	}
	c.logger.Debug("removed", "id", id)
	return nil
}

// Touch marks id as used now. Unknown ids are ignored.
func (c *DescriptorCache) Touch(id string) error {
	return c.store.Update(func(rows map[string]models.CacheEntry) error {
		entry, ok := rows[id]
		if !ok {
			return nil
		}
		entry.LastUsedAt = c.now()
		rows[id] = entry
		return nil
	})
}

// LastUsed returns the recorded last use of id.
func (c *DescriptorCache) LastUsed(id string) (time.Time, bool) {
	rows, err := c.store.Load()
	if err != nil {
		return time.Time{}, false
	}
	entry, ok := rows[id]
	if !ok || entry.LastUsedAt.IsZero() {
		return time.Time{}, false
	}
	return entry.LastUsedAt, true
}

// Entries returns the raw rows without reconciliation.
func (c *DescriptorCache) Entries() (map[string]models.CacheEntry, error) {
	return c.store.Load()
}

// Reset deletes every file in the download folder, then clears the rows.
func (c *DescriptorCache) Reset() error {
	c.logger.Debug("clearing downloads")

	files, err := os.ReadDir(c.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read download folder: %w", err)
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		path := filepath.Join(c.dir, f.Name())
		if err := os.Remove(path); err != nil {
			c.logger.Error("failed to delete", "file", path, "error", err)
		}
	}
	return c.store.Reset()
}

func (c *DescriptorCache) put(d models.Descriptor) error {
	return c.store.Update(func(rows map[string]models.CacheEntry) error {
		rows[d.ID] = models.CacheEntry{Descriptor: d, LastUsedAt: c.now()}
		return nil
	})
}

func (c *DescriptorCache) deleteRow(id string) error {
	return c.store.Update(func(rows map[string]models.CacheEntry) error {
		delete(rows, id)
		return nil
	})
}

// IsPartialDownload reports whether path is an in-progress yt-dlp artifact.
func IsPartialDownload(path string) bool {
	name := filepath.Base(path)
	if strings.Contains(name, ".part-Frag") {
		return true
	}
	for _, s := range partialSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// MediaID returns the id encoded in a download file name (<id>.<ext>).
func MediaID(path string) string {
	name := filepath.Base(path)
	if i := strings.Index(name, "."); i > 0 {
		return name[:i]
	}
	return name
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}
