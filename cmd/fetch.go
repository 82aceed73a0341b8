package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytbot/internal/services"
	"github.com/desertthunder/ytbot/internal/shared"
	"github.com/desertthunder/ytbot/internal/tasks"
)

// Fetch resolves url and downloads every song it refers to.
func (r *Runner) Fetch(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("url")
	if raw == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	ref, err := services.ParseReference(raw)
	if err != nil {
		return err
	}

	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	progress, stop := r.watchProgress(ctx)
	defer stop()
	a.dispatcher.SetProgress(progress)

	songs, err := a.loader.LoadAll(ctx, progress, ref)
	if err != nil {
		return err
	}

	summary, err := a.prefetcher.Prefetch(ctx, progress, songs, a.prefetchOpts())
	stop()
	if summary != nil {
		r.writePrefetchSummary(summary)
	}
	return err
}

func (r *Runner) writePrefetchSummary(summary *tasks.PrefetchSummary) {
	for _, res := range summary.Results {
		if res.Success {
			r.line(r.palette.OK(fmt.Sprintf("%s -> %s", res.Descriptor, res.File)))
		} else {
			r.line(r.palette.Err(fmt.Sprintf("%s: %v", res.Descriptor, res.Error)))
		}
	}
	r.writePlainln("Downloaded %d of %d songs (%d failed)", summary.Succeeded, summary.Total, summary.Failed)
}
