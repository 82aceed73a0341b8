package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytbot/internal/formatter"
	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/playback"
	"github.com/desertthunder/ytbot/internal/services"
	"github.com/desertthunder/ytbot/internal/shared"
)

// songIndex maps a 1-based song number, or next|previous|current, to a 0-based queue index.
func songIndex(q *playback.Queue, arg string) (int, error) {
	if q.Len() == 0 {
		return 0, shared.ErrEmptyQueue
	}

	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "next":
		return q.NextIndex(), nil
	case "previous", "prev":
		return q.PreviousIndex(), nil
	case "current", "":
		return q.CurrentIndex(), nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || !q.ValidSongNumber(n) {
		return 0, fmt.Errorf("%w: %s", shared.ErrInvalidSongNumber, arg)
	}
	return n - 1, nil
}

// QueueShow lists the queue.
func (r *Runner) QueueShow(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	st := a.queue.State()
	if cmd.Bool("json") {
		return r.writeJSON(st, true)
	}
	return r.line(r.palette.Queue(st, playback.Stopped.String()))
}

// QueueAdd appends the songs url refers to.
func (r *Runner) QueueAdd(ctx context.Context, cmd *cli.Command) error {
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

	songs, err := a.loader.LoadAll(ctx, nil, ref)
	if err != nil {
		return err
	}

	added := 0
	for _, d := range songs {
		ok, err := a.queue.Append(d)
		if err != nil {
			return err
		}
		if ok {
			added++
		}
	}

	if added == 1 && len(songs) == 1 {
		return r.line(r.palette.OK(fmt.Sprintf("Added %s to the queue", songs[0])))
	}
	return r.line(r.palette.OK(fmt.Sprintf("Added %d songs to the queue", added)))
}

// QueueRemove removes one song.
func (r *Runner) QueueRemove(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	i, err := songIndex(a.queue, cmd.StringArg("song"))
	if err != nil {
		return err
	}
	d := a.queue.Items()[i]
	if err := a.queue.Dequeue(i); err != nil {
		return err
	}
	return r.line(r.palette.OK(fmt.Sprintf("Removed %s", d)))
}

func (r *Runner) showQueued(pick func(*playback.Queue) (models.Descriptor, bool)) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	d, ok := pick(a.queue)
	if !ok {
		return shared.ErrEmptyQueue
	}
	return r.line(formatter.DescriptorText(d))
}

// QueueNext shows the song after the current one.
func (r *Runner) QueueNext(ctx context.Context, cmd *cli.Command) error {
	return r.showQueued((*playback.Queue).Next)
}

// QueuePrevious shows the song before the current one.
func (r *Runner) QueuePrevious(ctx context.Context, cmd *cli.Command) error {
	return r.showQueued((*playback.Queue).Previous)
}

// QueueCurrent shows the current song.
func (r *Runner) QueueCurrent(ctx context.Context, cmd *cli.Command) error {
	return r.showQueued((*playback.Queue).Current)
}

// QueueShuffle shuffles the queue.
func (r *Runner) QueueShuffle(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	if a.queue.Len() == 0 {
		return shared.ErrEmptyQueue
	}
	if err := a.queue.Shuffle(); err != nil {
		return err
	}
	return r.line(r.palette.Queue(a.queue.State(), playback.Stopped.String()))
}

// QueueClear empties the queue.
func (r *Runner) QueueClear(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.queue.Clear(); err != nil {
		return err
	}
	return r.line(r.palette.OK("Queue cleared"))
}

// QueueSkip makes a song current without playing it.
func (r *Runner) QueueSkip(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	i, err := songIndex(a.queue, cmd.StringArg("song"))
	if err != nil {
		return err
	}
	if err := a.queue.SetCurrentIndex(i); err != nil {
		return err
	}
	cur, _ := a.queue.Current()
	return r.line(r.palette.OK(fmt.Sprintf("Current song: %s", cur)))
}

// QueueExport writes the queue as Markdown (a directory with README.md) or plain text.
func (r *Runner) QueueExport(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	st := a.queue.State()
	if len(st.Items) == 0 {
		return shared.ErrEmptyQueue
	}
	output := cmd.String("output")

	switch strings.ToLower(cmd.String("format")) {
	case "markdown", "md":
		var cover string
		if cmd.Bool("cover") {
			cover = st.Items[st.CurrentIndex].ThumbnailURL
		}
		result, err := formatter.WriteMarkdownExport(st, output, cmd.String("title"), cover)
		if err != nil {
			return err
		}
		for _, f := range result.Files {
			r.line(r.palette.OK("Wrote " + f))
		}
		return nil
	case "text", "txt":
		data := formatter.ExportQueueText(st)
		if output == "" {
			return r.writePlain("%s", data)
		}
		if err := formatter.WriteFile(filepath.Clean(output), data); err != nil {
			return err
		}
		return r.line(r.palette.OK("Wrote " + output))
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, cmd.String("format"))
	}
}
