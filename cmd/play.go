package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytbot/internal/formatter"
	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/playback"
	"github.com/desertthunder/ytbot/internal/shared"
)

const consoleHelp = `Commands:
  play <url>              replace the queue and play
  add <url>               append to the queue
  random                  play random songs
  pause | resume | stop   transport
  next | previous         move through the queue
  skip <n>                play song number n
  remove <n|next|previous|current>
  shuffle | clear         reorder or empty the queue
  loop | unloop           repeat the current song
  vol <n> | vol+ | vol-   set, raise or lower the volume
  mute | unmute
  queue | now | status    show what is queued and playing
  quit                    leave the player`

// Play starts the player and reads commands from the input until quit or EOF.
//
// With a url the queue is replaced by it; with --random the queue is filled from the
// random song lists; otherwise the saved queue resumes from its current song.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	progress, stop := r.watchProgress(ctx)
	defer stop()
	a.dispatcher.SetProgress(progress)

	ctrl := a.newController(playback.ControllerOpts{
		Player:   r.player,
		Progress: progress,
		OnStart: func(d models.Descriptor) {
			r.line(r.palette.NowPlaying(d))
		},
		OnError: func(err error) {
			r.line(r.palette.Error(err))
		},
	})
	defer ctrl.Close()

	c := &console{r: r, ctrl: ctrl, queue: a.queue}
	switch url := cmd.StringArg("url"); {
	case url != "":
		if _, err := c.exec(ctx, "play "+url); err != nil {
			return err
		}
	case cmd.Bool("random"):
		if _, err := c.exec(ctx, "random"); err != nil {
			return err
		}
	default:
		if err := ctrl.Resume(); errors.Is(err, shared.ErrEmptyQueue) {
			r.line(r.palette.Warn("queue is empty, add songs with: add <url>"))
		} else if err != nil {
			return err
		}
	}

	r.line(r.palette.Help("type help for commands"))
	return c.run(ctx, r.input)
}

// console is the interactive prompt of the play command.
type console struct {
	r     *Runner
	ctrl  *playback.Controller
	queue *playback.Queue
}

func (c *console) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := c.exec(ctx, line)
			if err != nil {
				c.r.line(c.r.palette.Error(err))
			}
			if quit {
				return nil
			}
		}
	}
}

// exec runs one console command and reports whether the console should exit.
func (c *console) exec(ctx context.Context, line string) (bool, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	ctrl := c.ctrl
	out := c.r.palette

	switch strings.ToLower(name) {
	case "":
		return false, nil
	case "quit", "exit", "q":
		return true, nil
	case "help", "h", "?":
		return false, c.r.line(consoleHelp)

	case "play", "p":
		if arg == "" {
			return false, ctrl.Resume()
		}
		songs, err := ctrl.Play(ctx, arg)
		if len(songs) > 0 {
			c.r.line(out.OK(fmt.Sprintf("Queued %d songs", len(songs))))
		}
		return false, err
	case "add", "enqueue":
		if arg == "" {
			return false, fmt.Errorf("%w: url", shared.ErrMissingArgument)
		}
		songs, err := ctrl.Enqueue(ctx, arg)
		if len(songs) > 0 {
			c.r.line(out.OK(fmt.Sprintf("Added %d songs to the queue", len(songs))))
		}
		return false, err
	case "random":
		n, err := ctrl.Random(ctx)
		if err != nil {
			return false, err
		}
		return false, c.r.line(out.OK(fmt.Sprintf("Queued %d random songs", n)))

	case "pause":
		return false, ctrl.Pause()
	case "resume":
		return false, ctrl.Resume()
	case "stop":
		return false, ctrl.Stop()
	case "next", "n":
		return false, ctrl.Next()
	case "previous", "prev":
		return false, ctrl.Previous()
	case "skip":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, fmt.Errorf("%w: %q", shared.ErrInvalidSongNumber, arg)
		}
		return false, ctrl.SkipTo(n)
	case "remove", "rm":
		d, err := c.remove(arg)
		if err != nil {
			return false, err
		}
		return false, c.r.line(out.OK(fmt.Sprintf("Removed %s", d)))
	case "shuffle":
		if err := ctrl.Shuffle(); err != nil {
			return false, err
		}
		return false, c.showQueue()
	case "clear":
		if err := ctrl.ClearQueue(); err != nil {
			return false, err
		}
		return false, c.r.line(out.OK("Queue cleared"))

	case "loop":
		return false, ctrl.Loop()
	case "unloop":
		return false, ctrl.Unloop()
	case "mute":
		return false, ctrl.Mute()
	case "unmute":
		return false, ctrl.Unmute()
	case "vol", "volume":
		return false, c.volume(arg)
	case "vol+":
		return false, c.volume("+")
	case "vol-":
		return false, c.volume("-")

	case "queue", "ls":
		return false, c.showQueue()
	case "now":
		d, state, err := ctrl.NowPlaying()
		if err != nil {
			return false, err
		}
		return false, c.r.line(fmt.Sprintf("%s %s", formatter.StateIcon(state.String()), formatter.DescriptorText(d)))
	case "status":
		st := ctrl.Status()
		return false, c.r.line(fmt.Sprintf("%s  song %d of %d  volume %d  loop %t  mute %t",
			st.State, st.Index+1, st.Length, st.Settings.Volume, st.Settings.Loop, st.Settings.Mute))
	default:
		return false, fmt.Errorf("%w: unknown command %q", shared.ErrInvalidArgument, name)
	}
}

func (c *console) remove(arg string) (models.Descriptor, error) {
	switch strings.ToLower(arg) {
	case "next":
		return c.ctrl.DequeueNext()
	case "previous", "prev":
		return c.ctrl.DequeuePrevious()
	case "current", "":
		return c.ctrl.DequeueCurrent()
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return models.Descriptor{}, fmt.Errorf("%w: %q", shared.ErrInvalidSongNumber, arg)
	}
	return c.ctrl.Dequeue(n)
}

func (c *console) volume(arg string) error {
	var (
		v   int
		err error
	)
	switch arg {
	case "+":
		v, err = c.ctrl.IncreaseVolume()
	case "-":
		v, err = c.ctrl.DecreaseVolume()
	default:
		if v, err = strconv.Atoi(arg); err != nil {
			return fmt.Errorf("%w: volume %q", shared.ErrInvalidArgument, arg)
		}
		err = c.ctrl.SetVolume(v)
	}
	if err != nil {
		return err
	}
	return c.r.line(c.r.palette.OK(fmt.Sprintf("Volume %d", v)))
}

func (c *console) showQueue() error {
	return c.r.line(c.r.palette.Queue(c.queue.State(), c.ctrl.Status().State.String()))
}
