package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/shared"
)

type fakeRunner struct {
	mu       sync.Mutex
	requests []ytdlpRequest
	respond  func(req ytdlpRequest) (string, error)
}

func (f *fakeRunner) run(_ context.Context, req ytdlpRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.respond(req)
}

func newTestProvider(f *fakeRunner, searcher Searcher) *YTDLPProvider {
	p := NewYTDLPProvider(YTDLPOptions{DownloadDir: "downloads", Searcher: searcher})
	p.run = f.run
	return p
}

type stubSearcher struct {
	results []models.Descriptor
	err     error
}

func (s stubSearcher) Name() string { return "stub" }

func (s stubSearcher) Search(context.Context, string, int) ([]models.Descriptor, error) {
	return s.results, s.err
}

func TestYTDLPProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("ResolveMetadata", func(t *testing.T) {
		f := &fakeRunner{respond: func(req ytdlpRequest) (string, error) {
			return "abc123\tSong Title\thttps://www.youtube.com/watch?v=abc123\thttps://img/abc.jpg\n", nil
		}}
		p := newTestProvider(f, nil)

		d, err := p.ResolveMetadata(ctx, models.CanonicalURL("abc123"), false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := models.Descriptor{ID: "abc123", Title: "Song Title", URL: "https://www.youtube.com/watch?v=abc123", ThumbnailURL: "https://img/abc.jpg"}
		if d != want {
			t.Errorf("expected %+v, got %+v", want, d)
		}
		if f.requests[0].Download {
			t.Error("metadata lookup should not download")
		}
	})

	t.Run("ResolveMetadata with download", func(t *testing.T) {
		f := &fakeRunner{respond: func(ytdlpRequest) (string, error) {
			return "abc123\tSong\tNA\tNA", nil
		}}
		p := newTestProvider(f, nil)

		d, err := p.ResolveMetadata(ctx, "https://youtu.be/abc123", true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !f.requests[0].Download {
			t.Error("expected a download request")
		}
		if d.URL != models.CanonicalURL("abc123") || d.ThumbnailURL != models.ThumbnailFor("abc123") {
			t.Errorf("NA fields should be synthesized, got %+v", d)
		}
	})

	t.Run("provider failure", func(t *testing.T) {
		f := &fakeRunner{respond: func(ytdlpRequest) (string, error) {
			return "", errors.New("ERROR: Video unavailable")
		}}
		p := newTestProvider(f, nil)

		_, err := p.ResolveMetadata(ctx, "https://youtu.be/gone", true)
		if !errors.Is(err, shared.ErrProvider) {
			t.Fatalf("expected provider error, got %v", err)
		}
		if !strings.Contains(err.Error(), "Video unavailable") {
			t.Errorf("provider message should be preserved, got %q", err.Error())
		}
	})

	t.Run("empty output", func(t *testing.T) {
		f := &fakeRunner{respond: func(ytdlpRequest) (string, error) { return "\n", nil }}
		p := newTestProvider(f, nil)

		if _, err := p.ResolveMetadata(ctx, "https://youtu.be/x", false); !errors.Is(err, shared.ErrProvider) {
			t.Errorf("expected provider error, got %v", err)
		}
	})
}

func TestListPlaylistEntries(t *testing.T) {
	ctx := context.Background()
	listing := "a1\tFirst\tNA\tNA\nb2\tSecond\tNA\tNA\nNA\tDeleted video\tNA\tNA\n"

	t.Run("flat listing", func(t *testing.T) {
		f := &fakeRunner{respond: func(req ytdlpRequest) (string, error) {
			return listing, nil
		}}
		p := newTestProvider(f, nil)

		var ids []string
		for d, err := range p.ListPlaylistEntries(ctx, "https://www.youtube.com/playlist?list=PL1") {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			ids = append(ids, d.ID)
		}

		if strings.Join(ids, ",") != "a1,b2" {
			t.Errorf("unexpected entries %v", ids)
		}
		if len(f.requests) != 1 || !f.requests[0].Flat {
			t.Errorf("expected a single flat request, got %+v", f.requests)
		}
	})

	t.Run("falls back to full processing", func(t *testing.T) {
		f := &fakeRunner{respond: func(req ytdlpRequest) (string, error) {
			if req.Flat {
				return "", nil
			}
			return listing, nil
		}}
		p := newTestProvider(f, nil)

		count := 0
		for _, err := range p.ListPlaylistEntries(ctx, "https://www.youtube.com/watch?v=a1&list=RDa1") {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			count++
		}
		if count != 2 || len(f.requests) != 2 {
			t.Errorf("expected 2 entries from 2 requests, got %d from %d", count, len(f.requests))
		}
	})

	t.Run("no entries", func(t *testing.T) {
		f := &fakeRunner{respond: func(ytdlpRequest) (string, error) { return "", nil }}
		p := newTestProvider(f, nil)

		var errs []error
		for _, err := range p.ListPlaylistEntries(ctx, "https://www.youtube.com/playlist?list=private") {
			errs = append(errs, err)
		}
		if len(errs) != 1 || !errors.Is(errs[0], shared.ErrProvider) {
			t.Fatalf("expected a single provider error, got %v", errs)
		}
		if !strings.Contains(errs[0].Error(), "private/empty/invalid") {
			t.Errorf("unexpected message %q", errs[0].Error())
		}
	})

	t.Run("lazy", func(t *testing.T) {
		f := &fakeRunner{respond: func(ytdlpRequest) (string, error) { return listing, nil }}
		p := newTestProvider(f, nil)

		seq := p.ListPlaylistEntries(ctx, "https://www.youtube.com/playlist?list=PL1")
		if len(f.requests) != 0 {
			t.Error("listing should not run before iteration")
		}
		for range seq {
			break
		}
		if len(f.requests) != 1 {
			t.Errorf("expected one request, got %d", len(f.requests))
		}
	})
}

func TestProviderSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("delegates to searcher", func(t *testing.T) {
		f := &fakeRunner{respond: func(ytdlpRequest) (string, error) {
			t.Error("yt-dlp should not run when a searcher is configured")
			return "", nil
		}}
		want := []models.Descriptor{{ID: "s1", Title: "Result"}}
		p := newTestProvider(f, stubSearcher{results: want})

		got, err := p.Search(ctx, "query", 3)
		if err != nil || len(got) != 1 || got[0].ID != "s1" {
			t.Errorf("unexpected result %v, %v", got, err)
		}
	})

	t.Run("searcher failure is a provider error", func(t *testing.T) {
		f := &fakeRunner{respond: func(ytdlpRequest) (string, error) { return "", nil }}
		p := newTestProvider(f, stubSearcher{err: errors.New("rate limited")})

		if _, err := p.Search(ctx, "query", 3); !errors.Is(err, shared.ErrProvider) {
			t.Errorf("expected provider error, got %v", err)
		}
	})

	t.Run("ytsearch fallback", func(t *testing.T) {
		f := &fakeRunner{respond: func(req ytdlpRequest) (string, error) {
			if req.Search != 2 {
				t.Errorf("expected search size 2, got %d", req.Search)
			}
			return "a\tA\tNA\tNA\nb\tB\tNA\tNA\nc\tC\tNA\tNA", nil
		}}
		p := newTestProvider(f, nil)

		got, err := p.Search(ctx, "query", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected results capped at 2, got %d", len(got))
		}
	})
}

func TestNewSearcher(t *testing.T) {
	for source, name := range map[string]string{"": "youtube", "youtube": "youtube", "YTMusic": "ytmusic"} {
		s, err := NewSearcher(source)
		if err != nil {
			t.Fatalf("NewSearcher(%q) failed: %v", source, err)
		}
		if s.Name() != name {
			t.Errorf("NewSearcher(%q) = %s, want %s", source, s.Name(), name)
		}
	}

	if _, err := NewSearcher("bandcamp"); err == nil {
		t.Error("unknown source should fail")
	}
}
