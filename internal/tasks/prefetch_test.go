package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/ytbot/internal/models"
	tu "github.com/desertthunder/ytbot/internal/testing"
)

func TestPrefetch(t *testing.T) {
	songs := []models.Descriptor{tu.Track("a", "A"), tu.Track("b", "B"), tu.Track("c", "C")}

	tests := []struct {
		name          string
		input         []models.Descriptor
		opts          PrefetchOpts
		wantSucceeded int
		wantFailed    int
	}{
		{name: "all succeed", input: songs, opts: PrefetchOpts{NumWorkers: 2, RateLimit: 100}, wantSucceeded: 3},
		{
			name:          "unknown id fails alone",
			input:         append(append([]models.Descriptor(nil), songs...), tu.Track("missing", "Missing")),
			opts:          PrefetchOpts{NumWorkers: 3, RateLimit: 100},
			wantSucceeded: 3,
			wantFailed:    1,
		},
		{name: "empty input", input: nil, opts: PrefetchOpts{}},
		{name: "default options", input: songs[:1], opts: PrefetchOpts{}, wantSucceeded: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDispatcherFixture(t, 1<<20, songs...)
			p := NewPrefetcher(f.dispatcher, nil)

			summary, err := p.Prefetch(context.Background(), nil, tt.input, tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if summary.Total != len(tt.input) {
				t.Errorf("expected total %d, got %d", len(tt.input), summary.Total)
			}
			if summary.Succeeded != tt.wantSucceeded {
				t.Errorf("expected %d succeeded, got %d", tt.wantSucceeded, summary.Succeeded)
			}
			if summary.Failed != tt.wantFailed {
				t.Errorf("expected %d failed, got %d", tt.wantFailed, summary.Failed)
			}

			for _, res := range summary.Results {
				if res.Success {
					tu.AssertFileExists(t, res.File)
				} else if res.Error == nil {
					t.Errorf("failed result for %s has no error", res.Descriptor.ID)
				}
			}
		})
	}
}

func TestPrefetch_ProgressUpdates(t *testing.T) {
	songs := []models.Descriptor{tu.Track("a", "A"), tu.Track("b", "B")}
	f := newDispatcherFixture(t, 1<<20, songs...)

	prog := make(chan ProgressUpdate, 16)
	if _, err := NewPrefetcher(f.dispatcher, nil).Prefetch(context.Background(), prog, songs, PrefetchOpts{RateLimit: 100}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	close(prog)

	var completed int
	for u := range prog {
		if u.Phase != Prefetch {
			t.Errorf("unexpected phase %s", u.Phase)
		}
		if u.Total != len(songs) {
			t.Errorf("expected total %d, got %d", len(songs), u.Total)
		}
		if res, ok := u.Data.(PrefetchResult); ok && res.Success {
			completed++
		}
	}
	if completed != len(songs) {
		t.Errorf("expected %d completion updates, got %d", len(songs), completed)
	}
}

func TestPrefetch_ContextCancellation(t *testing.T) {
	songs := []models.Descriptor{tu.Track("a", "A"), tu.Track("b", "B")}
	f := newDispatcherFixture(t, 1<<20, songs...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := NewPrefetcher(f.dispatcher, nil).Prefetch(ctx, nil, songs, PrefetchOpts{RateLimit: 100})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if summary.Succeeded != 0 {
		t.Errorf("expected nothing fetched, got %d", summary.Succeeded)
	}
}
