package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytbot/internal/formatter"
)

// CacheMetrics reports the download folder size against its limit.
func (r *Runner) CacheMetrics(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	metrics, err := a.dispatcher.Metrics()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(metrics, true)
	}
	return r.line(formatter.MetricsText(metrics))
}

// CacheReset deletes every download and clears the caches.
func (r *Runner) CacheReset(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	return a.caches.ResetAll(func(name string) {
		r.line(r.palette.OK("Cleared " + name))
	})
}

// CachePrefetch downloads every queued song that is not on disk yet.
func (r *Runner) CachePrefetch(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	songs := a.queue.Items()
	if len(songs) == 0 {
		return r.line(r.palette.Warn("queue is empty"))
	}

	progress, stop := r.watchProgress(ctx)
	defer stop()
	a.dispatcher.SetProgress(progress)

	summary, err := a.prefetcher.Prefetch(ctx, progress, songs, a.prefetchOpts())
	stop()
	if summary != nil {
		r.writePrefetchSummary(summary)
	}
	return err
}

// CacheEvict enforces the download folder limit now.
func (r *Runner) CacheEvict(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	progress, stop := r.watchProgress(ctx)
	defer stop()
	a.dispatcher.SetProgress(progress)

	if err := a.dispatcher.CheckFolderSize(ctx); err != nil {
		return err
	}
	stop()

	metrics, err := a.dispatcher.Metrics()
	if err != nil {
		return err
	}
	return r.line(formatter.MetricsText(metrics))
}
