package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytbot/internal/shared"
	"github.com/desertthunder/ytbot/internal/tasks"
)

// RandomConfigure lists each configured artist playlist into the random songs folder.
func (r *Runner) RandomConfigure(ctx context.Context, cmd *cli.Command) error {
	source := cmd.String("source")
	if source == "" {
		source = r.config.Storage.RandomSongsConfig
	}
	outDir := cmd.String("output")
	if outDir == "" {
		outDir = r.config.Storage.RandomSongsDir
	}

	progress, stop := r.watchProgress(ctx)
	defer stop()

	n, err := tasks.ConfigureRandomSongs(ctx, progress, r.provider, source, outDir)
	stop()
	if err != nil {
		return err
	}
	return r.line(r.palette.OK(fmt.Sprintf("Saved %d random songs to %s", n, outDir)))
}

// RandomSample prints a shuffled selection of the random songs.
func (r *Runner) RandomSample(ctx context.Context, cmd *cli.Command) error {
	songs, err := tasks.LoadRandomSongs(r.config.Storage.RandomSongsDir, int(cmd.Int("count")))
	if err != nil {
		return err
	}
	if len(songs) == 0 {
		return shared.ErrNoRandomSongs
	}
	for i, d := range songs {
		r.writePlainln("%d. %s", i+1, d)
	}
	return nil
}
