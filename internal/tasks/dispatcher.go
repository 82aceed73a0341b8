package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/djherbis/times"
	"golang.org/x/sync/singleflight"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/repositories"
	"github.com/desertthunder/ytbot/internal/services"
	"github.com/desertthunder/ytbot/internal/shared"
)

// Dispatcher turns (url, id) requests into local files. Concurrent requests for one id
// share a single download, and the download folder is kept under its byte budget before
// every new download.
type Dispatcher struct {
	cache    *repositories.DescriptorCache
	provider services.Resolver
	limit    int64
	logger   *log.Logger

	group singleflight.Group

	mu       sync.Mutex
	fetching map[string]struct{}

	evictMu  sync.Mutex
	progress chan<- ProgressUpdate
}

// NewDispatcher creates a dispatcher and registers it as the cache's fetcher.
func NewDispatcher(cache *repositories.DescriptorCache, provider services.Resolver, limitBytes int64, logger *log.Logger) *Dispatcher {
	d := &Dispatcher{
		cache:    cache,
		provider: provider,
		limit:    limitBytes,
		logger:   shared.ComponentLogger(logger, "dispatcher"),
		fetching: make(map[string]struct{}),
	}
	cache.SetFetcher(d)
	return d
}

// SetProgress reports evictions on progress. Sends never block.
func (d *Dispatcher) SetProgress(progress chan<- ProgressUpdate) {
	d.progress = progress
}

// Fetch returns the local file and descriptor for id, downloading it from url if needed.
//
// A caller whose ctx ends stops waiting, but the shared download keeps running for the
// other waiters.
func (d *Dispatcher) Fetch(ctx context.Context, url, id string) (models.FetchResult, error) {
	if id == "" {
		return models.FetchResult{}, fmt.Errorf("%w: empty media id", shared.ErrInvalidArgument)
	}
	if url == "" {
		url = models.CanonicalURL(id)
	}

	ch := d.group.DoChan(id, func() (any, error) {
		return d.fetch(context.WithoutCancel(ctx), url, id)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return models.FetchResult{}, res.Err
		}
		if res.Shared {
			d.logger.Debug("shared in-flight fetch", "id", id)
		}
		return res.Val.(models.FetchResult), nil
	case <-ctx.Done():
		return models.FetchResult{}, ctx.Err()
	}
}

func (d *Dispatcher) fetch(ctx context.Context, url, id string) (models.FetchResult, error) {
	if desc, ok := d.cache.Get(ctx, id); ok {
		file, ok := d.cache.FileFor(id)
		if !ok {
			return models.FetchResult{}, fmt.Errorf("%w: %s cached but not in %s", shared.ErrInconsistentCache, id, d.cache.Dir())
		}
		if err := d.cache.Touch(id); err != nil {
			d.logger.Warn("failed to touch", "id", id, "error", err)
		}
		d.logger.Debug("already downloaded", "file", file)
		return models.FetchResult{File: file, Descriptor: desc}, nil
	}

	d.markFetching(id)
	if err := d.CheckFolderSize(ctx); err != nil {
		d.logger.Warn("capacity check failed", "error", err)
	}

	desc, err := d.provider.ResolveMetadata(ctx, url, true)
	d.unmarkFetching(id)
	if err != nil {
		d.logger.Error("download failed", "id", id, "error", err)
		return models.FetchResult{}, shared.NewProviderError("download", url, err)
	}

	file, ok := d.cache.FileFor(id)
	if !ok && desc.ID != "" && desc.ID != id {
		file, ok = d.cache.FileFor(desc.ID)
	}
	if !ok {
		return models.FetchResult{}, fmt.Errorf("%w: failed to download %s, no file for %s", shared.ErrInconsistentCache, url, id)
	}

	if desc.ID == "" {
		desc.ID = id
	}
	if err := d.cache.Register(desc); err != nil {
		return models.FetchResult{}, err
	}

	d.logger.Info("downloaded", "id", desc.ID, "title", desc.Title)
	return models.FetchResult{File: file, Descriptor: desc}, nil
}

// IsFetching reports whether a download for id is in progress.
func (d *Dispatcher) IsFetching(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.fetching[id]
	return ok
}

// Fetching lists the ids being downloaded, sorted.
func (d *Dispatcher) Fetching() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := make([]string, 0, len(d.fetching))
	for id := range d.fetching {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (d *Dispatcher) markFetching(id string) {
	d.mu.Lock()
	d.fetching[id] = struct{}{}
	d.mu.Unlock()
}

func (d *Dispatcher) unmarkFetching(id string) {
	d.mu.Lock()
	delete(d.fetching, id)
	d.mu.Unlock()
}

type folderFile struct {
	path     string
	id       string
	size     int64
	lastUsed time.Time
}

// scan lists the regular files of the download folder.
func (d *Dispatcher) scan() ([]folderFile, int64, error) {
	entries, err := os.ReadDir(d.cache.Dir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	} else if err != nil {
		return nil, 0, fmt.Errorf("failed to read download folder: %w", err)
	}

	var (
		files []folderFile
		total int64
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(d.cache.Dir(), e.Name())
		files = append(files, folderFile{path: path, id: repositories.MediaID(path), size: info.Size(), lastUsed: info.ModTime()})
		total += info.Size()
	}
	return files, total, nil
}

// Metrics measures the download folder.
func (d *Dispatcher) Metrics() (models.FolderMetrics, error) {
	files, total, err := d.scan()
	if err != nil {
		return models.FolderMetrics{}, err
	}
	return models.FolderMetrics{
		TotalBytes: total,
		TotalMB:    shared.BytesToMB(total),
		FileCount:  len(files),
		LimitMB:    shared.BytesToMB(d.limit),
	}, nil
}

// CheckFolderSize deletes least recently used files until the folder fits its budget.
//
// Last use is the cache row's LastUsedAt, falling back to the file's access time and then
// its modification time. Files of ids being downloaded are never evicted, so the folder may
// stay over budget when nothing else is left to remove.
func (d *Dispatcher) CheckFolderSize(ctx context.Context) error {
	d.evictMu.Lock()
	defer d.evictMu.Unlock()

	files, total, err := d.scan()
	if err != nil {
		return err
	}
	d.logger.Debug("downloads folder size", "mb", fmt.Sprintf("%.2f", shared.BytesToMB(total)))
	if total <= d.limit {
		return nil
	}

	d.logger.Warn("downloads folder over limit",
		"size_mb", fmt.Sprintf("%.2f", shared.BytesToMB(total)),
		"limit_mb", shared.BytesToMB(d.limit))

	rows, err := d.cache.Entries()
	if err != nil {
		d.logger.Warn("failed to load cache rows, using file times", "error", err)
		rows = nil
	}

	candidates := files[:0]
	for _, f := range files {
		if d.IsFetching(f.id) {
			continue
		}
		f.lastUsed = lastUsed(f, rows)
		candidates = append(candidates, f)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].lastUsed.Equal(candidates[j].lastUsed) {
			return candidates[i].path < candidates[j].path
		}
		return candidates[i].lastUsed.Before(candidates[j].lastUsed)
	})

	evicted := 0
	for _, f := range candidates {
		if total <= d.limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			d.logger.Error("failed to evict", "file", f.path, "error", err)
			continue
		}
		total -= f.size
		evicted++
		d.logger.Warn("evicted", "file", f.path, "bytes", f.size)
		sendProgress(d.progress, evictUpdate(evicted, f.path, f.size))

		if _, ok := d.cache.FileFor(f.id); !ok {
			if err := d.cache.Remove(f.id); err != nil {
				d.logger.Warn("failed to drop evicted row", "id", f.id, "error", err)
			}
		}
	}

	if total > d.limit {
		d.logger.Warn("downloads folder still over limit", "size_mb", fmt.Sprintf("%.2f", shared.BytesToMB(total)))
	}
	return nil
}

func lastUsed(f folderFile, rows map[string]models.CacheEntry) time.Time {
	if entry, ok := rows[f.id]; ok && !entry.LastUsedAt.IsZero() {
		return entry.LastUsedAt
	}
	if ts, err := times.Stat(f.path); err == nil {
		return ts.AccessTime()
	}
	return f.lastUsed
}
