package playback

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytbot/internal/shared"
)

// Player starts audio playback of local files.
type Player interface {
	Start(ctx context.Context, file string, volume float64) (Playback, error)
}

// Playback is a handle to one playing file. Done is closed when playback ends for any reason.
type Playback interface {
	Pause() error
	Resume() error
	Stop() error
	SetVolume(volume float64) error
	Paused() bool
	Done() <-chan struct{}
}

// ExecPlayer plays files with an external command such as mpv.
type ExecPlayer struct {
	command    string
	args       []string
	volumeFlag string
	logger     *log.Logger
}

func NewExecPlayer(cfg shared.PlayerConfig, logger *log.Logger) *ExecPlayer {
	command := cfg.Command
	if command == "" {
		command = "mpv"
	}
	return &ExecPlayer{
		command:    command,
		args:       cfg.Args,
		volumeFlag: cfg.VolumeFlag,
		logger:     shared.ComponentLogger(logger, "player"),
	}
}

// Command returns the argv used to play file at volume.
func (p *ExecPlayer) Command(file string, volume float64) []string {
	argv := append([]string{p.command}, p.args...)
	if p.volumeFlag != "" {
		argv = append(argv, fmt.Sprintf("%s%d", p.volumeFlag, int(volume*100+0.5)))
	}
	return append(argv, file)
}

func (p *ExecPlayer) Start(ctx context.Context, file string, volume float64) (Playback, error) {
	argv := p.Command(file, volume)
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("player %q not found: %w", argv[0], err)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start player: %w", err)
	}
	p.logger.Debug("started", "file", file, "pid", cmd.Process.Pid)

	pb := &execPlayback{cmd: cmd, volume: volume, done: make(chan struct{}), logger: p.logger}
	go pb.wait()
	return pb, nil
}

type execPlayback struct {
	cmd    *exec.Cmd
	logger *log.Logger
	done   chan struct{}

	mu      sync.Mutex
	paused  bool
	stopped bool
	volume  float64
}

func (pb *execPlayback) wait() {
	err := pb.cmd.Wait()

	pb.mu.Lock()
	stopped := pb.stopped
	pb.mu.Unlock()

	var exitErr *exec.ExitError
	if err != nil && !stopped && !errors.As(err, &exitErr) {
		pb.logger.Warn("player exited", "error", err)
	}
	close(pb.done)
}

func (pb *execPlayback) Done() <-chan struct{} { return pb.done }

func (pb *execPlayback) Paused() bool {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.paused
}

func (pb *execPlayback) Pause() error {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if pb.paused || pb.stopped {
		return nil
	}
	if err := suspend(pb.cmd.Process); err != nil {
		return err
	}
	pb.paused = true
	return nil
}

func (pb *execPlayback) Resume() error {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if !pb.paused || pb.stopped {
		return nil
	}
	if err := resume(pb.cmd.Process); err != nil {
		return err
	}
	pb.paused = false
	return nil
}

func (pb *execPlayback) Stop() error {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if pb.stopped {
		return nil
	}
	pb.stopped = true

	if pb.paused {
		_ = resume(pb.cmd.Process)
		pb.paused = false
	}
	if err := pb.cmd.Process.Kill(); err != nil && !errors.Is(err, errProcessDone) {
		return fmt.Errorf("failed to stop player: %w", err)
	}
	return nil
}

// SetVolume records v. A running external player keeps its start volume, so the new
// value takes effect with the next track.
func (pb *execPlayback) SetVolume(v float64) error {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.volume = v
	pb.logger.Debug("volume changed, applies from next track", "volume", v)
	return nil
}
