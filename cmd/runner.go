package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytbot/internal/playback"
	"github.com/desertthunder/ytbot/internal/services"
	"github.com/desertthunder/ytbot/internal/shared"
	"github.com/desertthunder/ytbot/internal/tasks"
	"github.com/desertthunder/ytbot/internal/ui"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	provider   services.Provider
	player     playback.Player
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	palette    *ui.Palette
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Provider   services.Provider
	Player     playback.Player
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration.
//
// Without a provider, yt-dlp is used with the searcher named by search.source.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Player == nil {
		opts.Player = playback.NewExecPlayer(opts.Config.Player, opts.Logger)
	}
	if opts.Provider == nil {
		searcher, err := services.NewSearcher(opts.Config.Search.Source)
		if err != nil {
			opts.Logger.Warn("falling back to yt-dlp search", "error", err)
		}
		opts.Provider = services.NewYTDLPProvider(services.YTDLPOptions{
			DownloadDir:       opts.Config.Storage.DownloadDir,
			Format:            opts.Config.Provider.Format,
			Proxy:             opts.Config.Provider.Proxy,
			RequestsPerSecond: opts.Config.Provider.RequestsPerSecond,
			Searcher:          searcher,
			Logger:            opts.Logger,
		})
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		provider:   opts.Provider,
		player:     opts.Player,
		logger:     opts.Logger,
		output:     &lockedWriter{w: opts.Output},
		input:      opts.Input,
		palette:    ui.DefaultPalette(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, fetchCommand, queueCommand, playCommand,
		cacheCommand, randomCommand, historyCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// open builds the components a command works with. Callers must close the result.
func (r *Runner) open() (*app, error) {
	return openApp(r.config, r.provider, r.logger)
}

// watchProgress prints progress updates until the returned stop function is called.
//
// The channel is never closed because background downloads may outlive the command.
func (r *Runner) watchProgress(ctx context.Context) (chan<- tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 64)
	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case u := <-progress:
				r.logger.Debug("progress", "phase", u.Phase, "step", u.Step, "total", u.Total)
				r.writePlain("%s\n", r.palette.Help(u.Message))
			case <-quit:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return progress, func() {
		once.Do(func() { close(quit) })
		<-done
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain(format+"\n", args...)
}

// line writes s followed by a newline.
func (r *Runner) line(s string) error {
	return r.writePlain("%s\n", s)
}

// lockedWriter serializes writes from command actions and background callbacks.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
