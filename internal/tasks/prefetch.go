package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/repositories"
	"github.com/desertthunder/ytbot/internal/shared"
)

// PrefetchOpts contains configuration for bulk downloads.
type PrefetchOpts struct {
	NumWorkers int     // Concurrent workers (default: 3)
	RateLimit  float64 // Fetches started per second (default: 2)
}

// PrefetchResult is the outcome for one descriptor.
type PrefetchResult struct {
	Descriptor models.Descriptor
	File       string
	Success    bool
	Error      error
}

// PrefetchSummary aggregates a bulk download.
type PrefetchSummary struct {
	Total     int
	Succeeded int
	Failed    int
	Results   []PrefetchResult
}

// Prefetcher downloads many descriptors ahead of playback.
type Prefetcher struct {
	fetcher repositories.Fetcher
	logger  *log.Logger
}

func NewPrefetcher(fetcher repositories.Fetcher, logger *log.Logger) *Prefetcher {
	return &Prefetcher{fetcher: fetcher, logger: shared.ComponentLogger(logger, "prefetch")}
}

// Prefetch fetches ds with a worker pool under a rate limiter.
//
// Individual failures are recorded in the summary; the returned error is only set when ctx ends early.
func (p *Prefetcher) Prefetch(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	ds []models.Descriptor,
	opts PrefetchOpts,
) (*PrefetchSummary, error) {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	summary := &PrefetchSummary{Total: len(ds), Results: make([]PrefetchResult, 0, len(ds))}
	if len(ds) == 0 {
		return summary, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan models.Descriptor, len(ds))
	results := make(chan PrefetchResult, len(ds))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go p.worker(ctx, &wg, jobs, results)
	}

	go func() {
		defer close(jobs)
		for i, d := range ds {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			sendProgress(prog, prefetchQueuedUpdate(i+1, len(ds), d))
			jobs <- d
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		summary.Results = append(summary.Results, res)
		if res.Success {
			summary.Succeeded++
			sendProgress(prog, prefetchCompletedUpdate(completed, len(ds), res))
		} else {
			summary.Failed++
			p.logger.Warn("prefetch failed", "id", res.Descriptor.ID, "error", res.Error)
			sendProgress(prog, prefetchFailedUpdate(completed, len(ds), res))
		}
	}

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("prefetch interrupted after %d of %d: %w", completed, len(ds), err)
	}
	return summary, nil
}

func (p *Prefetcher) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan models.Descriptor,
	results chan<- PrefetchResult,
) {
	defer wg.Done()

	for d := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := PrefetchResult{Descriptor: d}
		fetched, err := p.fetcher.Fetch(ctx, d.URL, d.ID)
		if err != nil {
			res.Error = err
		} else {
			res.Success = true
			res.File = fetched.File
			res.Descriptor = fetched.Descriptor
		}
		results <- res
	}
}
