package repositories

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/shared"
	"github.com/desertthunder/ytbot/internal/store"
	tu "github.com/desertthunder/ytbot/internal/testing"
)

// providerFetcher downloads through the mock provider and registers the result.
type providerFetcher struct {
	cache    *DescriptorCache
	provider *tu.MockProvider
	calls    int
}

func (f *providerFetcher) Fetch(ctx context.Context, url, id string) (models.FetchResult, error) {
	f.calls++
	d, err := f.provider.ResolveMetadata(ctx, url, true)
	if err != nil {
		return models.FetchResult{}, err
	}
	if err := f.cache.Register(d); err != nil {
		return models.FetchResult{}, err
	}
	file, _ := f.cache.FileFor(d.ID)
	return models.FetchResult{File: file, Descriptor: d}, nil
}

type cacheFixture struct {
	cache    *DescriptorCache
	provider *tu.MockProvider
	fetcher  *providerFetcher
	dir      string
}

func newCacheFixture(t *testing.T, ds ...models.Descriptor) cacheFixture {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "downloads")
	provider := tu.NewMockProvider(dir, ds...)

	cache, err := NewDescriptorCache(store.NewJSONStore[models.CacheEntry](root, DownloadsCacheName), dir, provider, nil)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	fetcher := &providerFetcher{cache: cache, provider: provider}
	cache.SetFetcher(fetcher)
	return cacheFixture{cache: cache, provider: provider, fetcher: fetcher, dir: dir}
}

func TestDescriptorCacheFileFor(t *testing.T) {
	f := newCacheFixture(t)

	t.Run("no file", func(t *testing.T) {
		if _, ok := f.cache.FileFor("abc"); ok {
			t.Error("expected no file")
		}
	})

	t.Run("single file", func(t *testing.T) {
		path := tu.WriteFile(t, f.dir, "abc.webm", 10)
		got, ok := f.cache.FileFor("abc")
		if !ok || got != path {
			t.Errorf("expected %s, got %s (%v)", path, got, ok)
		}
	})

	t.Run("prefix of another id does not match", func(t *testing.T) {
		tu.WriteFile(t, f.dir, "abcd.webm", 10)
		if _, ok := f.cache.FileFor("ab"); ok {
			t.Error("id prefix should not match")
		}
	})

	t.Run("partial downloads are ignored", func(t *testing.T) {
		tu.WriteFile(t, f.dir, "part.webm.part", 10)
		tu.WriteFile(t, f.dir, "part.webm.ytdl", 10)
		if _, ok := f.cache.FileFor("part"); ok {
			t.Error("partial download should not count as a file")
		}
	})

	t.Run("newest of several", func(t *testing.T) {
		old := tu.WriteFile(t, f.dir, "dup.m4a", 10)
		newer := tu.WriteFile(t, f.dir, "dup.webm", 10)
		past := time.Now().Add(-time.Hour)
		if err := os.Chtimes(old, past, past); err != nil {
			t.Fatal(err)
		}

		got, ok := f.cache.FileFor("dup")
		if !ok || got != newer {
			t.Errorf("expected newest file %s, got %s", newer, got)
		}
	})
}

func TestDescriptorCache(t *testing.T) {
	ctx := context.Background()
	a := tu.Track("aaa", "Song A")

	t.Run("Add downloads missing file and round trips", func(t *testing.T) {
		f := newCacheFixture(t, a)

		if err := f.cache.Add(ctx, a); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		if _, ok := f.cache.FileFor(a.ID); !ok {
			t.Error("file should exist after Add")
		}
		got, ok := f.cache.Get(ctx, a.ID)
		if !ok || got != a {
			t.Errorf("expected %+v, got %+v (%v)", a, got, ok)
		}
		if f.provider.Downloads() != 1 {
			t.Errorf("expected one download, got %d", f.provider.Downloads())
		}
	})

	t.Run("Add with existing file does not fetch", func(t *testing.T) {
		f := newCacheFixture(t, a)
		tu.WriteFile(t, f.dir, "aaa.webm", 10)

		if err := f.cache.Add(ctx, a); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if f.fetcher.calls != 0 {
			t.Errorf("expected no fetch, got %d", f.fetcher.calls)
		}
	})

	t.Run("Add propagates fetch failure", func(t *testing.T) {
		f := newCacheFixture(t, a)
		f.provider.Err = errors.New("video unavailable")

		if err := f.cache.Add(ctx, a); !errors.Is(err, shared.ErrProvider) {
			t.Fatalf("expected provider error, got %v", err)
		}
		if entries, _ := f.cache.Entries(); len(entries) != 0 {
			t.Errorf("failed add should not persist a row, got %v", entries)
		}
	})

	t.Run("Remove deletes file and row", func(t *testing.T) {
		f := newCacheFixture(t, a)
		if err := f.cache.Add(ctx, a); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		if err := f.cache.Remove(a.ID); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		if _, ok := f.cache.FileFor(a.ID); ok {
			t.Error("file should be gone")
		}
		if _, ok := f.cache.Get(ctx, a.ID); ok {
			t.Error("row should be gone")
		}
	})

	t.Run("Remove tolerates missing halves", func(t *testing.T) {
		f := newCacheFixture(t, a)

		if err := f.cache.Remove("missing"); err != nil {
			t.Errorf("removing unknown id failed: %v", err)
		}

		tu.WriteFile(t, f.dir, "fileonly.webm", 10)
		if err := f.cache.Remove("fileonly"); err != nil {
			t.Errorf("removing file-only id failed: %v", err)
		}
		tu.AssertFileNotExists(t, filepath.Join(f.dir, "fileonly.webm"))
	})

	t.Run("stale row is dropped", func(t *testing.T) {
		f := newCacheFixture(t, a)
		if err := f.cache.Add(ctx, a); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		file, _ := f.cache.FileFor(a.ID)
		os.Remove(file)

		if _, ok := f.cache.Get(ctx, a.ID); ok {
			t.Error("expected a miss for a row without file")
		}
		if entries, _ := f.cache.Entries(); len(entries) != 0 {
			t.Errorf("stale row should be deleted, got %v", entries)
		}
	})

	t.Run("orphan file is re-resolved once", func(t *testing.T) {
		f := newCacheFixture(t, a)
		tu.WriteFile(t, f.dir, "aaa.opus", 10)

		first, ok := f.cache.Get(ctx, a.ID)
		if !ok || first != a {
			t.Fatalf("expected synthesized %+v, got %+v (%v)", a, first, ok)
		}

		second, ok := f.cache.Get(ctx, a.ID)
		if !ok || second != first {
			t.Errorf("second Get should return the same descriptor, got %+v", second)
		}
		if f.provider.Resolves() != 1 {
			t.Errorf("expected a single metadata resolve, got %d", f.provider.Resolves())
		}
		if refs := f.provider.Refs(); len(refs) == 0 || refs[0] != models.CanonicalURL(a.ID) {
			t.Errorf("expected canonical url lookup, got %v", refs)
		}
		if f.provider.Downloads() != 0 {
			t.Error("reconciliation should never download")
		}
	})

	t.Run("orphan resolution failure is a silent miss", func(t *testing.T) {
		f := newCacheFixture(t)
		tu.WriteFile(t, f.dir, "unknown.webm", 10)

		if _, ok := f.cache.Get(ctx, "unknown"); ok {
			t.Error("expected a miss when the provider cannot resolve the file")
		}
	})

	t.Run("Register requires a file", func(t *testing.T) {
		f := newCacheFixture(t, a)
		if err := f.cache.Register(a); !errors.Is(err, shared.ErrInconsistentCache) {
			t.Errorf("expected ErrInconsistentCache, got %v", err)
		}
	})

	t.Run("Touch and LastUsed", func(t *testing.T) {
		f := newCacheFixture(t, a)
		clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		f.cache.now = func() time.Time { return clock }

		if err := f.cache.Add(ctx, a); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if got, ok := f.cache.LastUsed(a.ID); !ok || !got.Equal(clock) {
			t.Errorf("expected %v, got %v", clock, got)
		}

		clock = clock.Add(time.Hour)
		if err := f.cache.Touch(a.ID); err != nil {
			t.Fatalf("Touch failed: %v", err)
		}
		if got, _ := f.cache.LastUsed(a.ID); !got.Equal(clock) {
			t.Errorf("expected touched time %v, got %v", clock, got)
		}

		if err := f.cache.Touch("unknown"); err != nil {
			t.Errorf("touching an unknown id should be a no-op, got %v", err)
		}
		if _, ok := f.cache.LastUsed("unknown"); ok {
			t.Error("unknown id should have no last use")
		}
	})

	t.Run("Reset", func(t *testing.T) {
		f := newCacheFixture(t, a)
		if err := f.cache.Add(ctx, a); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		tu.WriteFile(t, f.dir, "stray.webm.part", 10)

		if err := f.cache.Reset(); err != nil {
			t.Fatalf("Reset failed: %v", err)
		}

		files, _ := os.ReadDir(f.dir)
		if len(files) != 0 {
			t.Errorf("expected empty download folder, found %d files", len(files))
		}
		if entries, _ := f.cache.Entries(); len(entries) != 0 {
			t.Errorf("expected no rows, got %v", entries)
		}
	})
}

func TestDownloadFileNames(t *testing.T) {
	tc := []struct {
		path    string
		partial bool
		id      string
	}{
		{path: "/d/abc.webm", id: "abc"},
		{path: "/d/abc.webm.part", partial: true, id: "abc"},
		{path: "/d/abc.f251.webm.ytdl", partial: true, id: "abc"},
		{path: "/d/abc.webm.part-Frag3", partial: true, id: "abc"},
		{path: "/d/a-b_c.m4a", id: "a-b_c"},
	}

	for _, tt := range tc {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsPartialDownload(tt.path); got != tt.partial {
				t.Errorf("IsPartialDownload = %v, want %v", got, tt.partial)
			}
			if got := MediaID(tt.path); got != tt.id {
				t.Errorf("MediaID = %s, want %s", got, tt.id)
			}
		})
	}
}
