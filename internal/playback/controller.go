package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/repositories"
	"github.com/desertthunder/ytbot/internal/services"
	"github.com/desertthunder/ytbot/internal/shared"
	"github.com/desertthunder/ytbot/internal/store"
	"github.com/desertthunder/ytbot/internal/tasks"
)

// State is what the player is doing.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// Status is a snapshot of the controller.
type Status struct {
	State      State             `json:"state"`
	Current    models.Descriptor `json:"current"`
	HasCurrent bool              `json:"has_current"`
	Index      int               `json:"current_index"`
	Length     int               `json:"length"`
	Settings   models.Settings   `json:"settings"`
}

// HistoryRecorder stores every track the controller starts.
type HistoryRecorder interface {
	Record(d models.Descriptor) (*models.HistoryEntry, error)
}

// ControllerOpts holds the collaborators of a [Controller].
type ControllerOpts struct {
	Queue    *Queue
	Settings *Settings
	Fetcher  repositories.Fetcher
	Loader   *tasks.Loader
	Player   Player
	History  HistoryRecorder // optional
	Caches   *store.Registry // optional, used by ResetCache

	RandomDir   string
	RandomCount int

	Progress chan<- tasks.ProgressUpdate
	Logger   *log.Logger

	// OnStart is called after a track started playing.
	OnStart func(models.Descriptor)
	// OnError receives failures of background fetches and playback starts.
	OnError func(error)
}

// Controller drives playback from the queue.
//
// Downloads run on their own goroutines and hand the result back under the controller lock.
// Every request to play bumps a generation counter; a finished download only starts
// playback when no newer request or stop happened in the meantime.
type Controller struct {
	queue       *Queue
	settings    *Settings
	fetcher     repositories.Fetcher
	loader      *tasks.Loader
	player      Player
	history     HistoryRecorder
	caches      *store.Registry
	randomDir   string
	randomCount int
	progress    chan<- tasks.ProgressUpdate
	logger      *log.Logger
	onStart     func(models.Descriptor)
	onError     func(error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	playback Playback
	gen      uint64
	closed   bool
}

func NewController(opts ControllerOpts) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		queue:       opts.Queue,
		settings:    opts.Settings,
		fetcher:     opts.Fetcher,
		loader:      opts.Loader,
		player:      opts.Player,
		history:     opts.History,
		caches:      opts.Caches,
		randomDir:   opts.RandomDir,
		randomCount: opts.RandomCount,
		progress:    opts.Progress,
		logger:      shared.ComponentLogger(opts.Logger, "controller"),
		onStart:     opts.OnStart,
		onError:     opts.OnError,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Close stops playback and waits for background work to finish.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopLocked()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// Play replaces the queue with what text refers to and starts the first track.
// Playlist entries keep loading into the queue while the first one is fetched.
func (c *Controller) Play(ctx context.Context, text string) ([]models.Descriptor, error) {
	c.logger.Debug("playing", "ref", text)
	ref, err := services.ParseReference(text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()

	if err := c.queue.Clear(); err != nil {
		return nil, err
	}

	var loaded []models.Descriptor
	for d, err := range c.loader.Load(ctx, c.progress, ref) {
		if err != nil {
			return loaded, err
		}
		c.appendToQueue(d)
		if len(loaded) == 0 {
			c.mu.Lock()
			c.requestPlayLocked(d)
			c.mu.Unlock()
		}
		loaded = append(loaded, d)
	}
	return loaded, nil
}

// Enqueue appends what text refers to without interrupting playback.
func (c *Controller) Enqueue(ctx context.Context, text string) ([]models.Descriptor, error) {
	c.logger.Debug("queueing", "ref", text)
	ref, err := services.ParseReference(text)
	if err != nil {
		return nil, err
	}

	var loaded []models.Descriptor
	for d, err := range c.loader.Load(ctx, c.progress, ref) {
		if err != nil {
			return loaded, err
		}
		c.appendToQueue(d)
		loaded = append(loaded, d)
	}
	return loaded, nil
}

// Random replaces the queue with a shuffled pick of the random song lists and plays it.
func (c *Controller) Random(ctx context.Context) (int, error) {
	songs, err := tasks.LoadRandomSongs(c.randomDir, c.randomCount)
	if err != nil {
		return 0, err
	}
	if len(songs) == 0 {
		return 0, shared.ErrNoRandomSongs
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.queue.Clear(); err != nil {
		return 0, err
	}
	if err := c.queue.Extend(songs); err != nil {
		return 0, err
	}
	if err := c.loader.Remember(songs); err != nil {
		c.logger.Warn("failed to remember random songs", "error", err)
	}

	c.stopLocked()
	if cur, ok := c.queue.Current(); ok {
		c.requestPlayLocked(cur)
	}
	return len(songs), nil
}

func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.queue.Current()
	if !ok {
		return shared.ErrEmptyQueue
	}
	if c.playback != nil {
		if !c.playback.Paused() {
			return shared.ErrAlreadyPlaying
		}
		return c.playback.Resume()
	}
	c.requestPlayLocked(cur)
	return nil
}

func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.queue.Current(); !ok || c.playback == nil || c.playback.Paused() {
		return shared.ErrNotPlaying
	}
	return c.playback.Pause()
}

func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playback == nil {
		return shared.ErrNotPlaying
	}
	c.stopLocked()
	return nil
}

// Next plays the track after the current one, wrapping around.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, ok := c.queue.Next()
	if !ok {
		return shared.ErrEmptyQueue
	}
	c.requestPlayLocked(next)
	return nil
}

// Previous plays the track before the current one, wrapping around.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, ok := c.queue.Previous()
	if !ok {
		return shared.ErrEmptyQueue
	}
	c.requestPlayLocked(prev)
	return nil
}

// SkipTo plays the 1-based song number n.
func (c *Controller) SkipTo(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkSongNumber(n); err != nil {
		return err
	}
	c.stopLocked()
	if err := c.queue.SetCurrentIndex(n - 1); err != nil {
		return err
	}
	cur, _ := c.queue.Current()
	c.requestPlayLocked(cur)
	return nil
}

// Dequeue removes the 1-based song number n. Removing the track that is playing moves
// playback on to the track that took its place.
func (c *Controller) Dequeue(n int) (models.Descriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkSongNumber(n); err != nil {
		return models.Descriptor{}, err
	}

	index := n - 1
	removed := c.queue.Items()[index]
	wasPlaying := c.playback != nil && !c.playback.Paused()
	resume := false

	if index == c.queue.CurrentIndex() {
		resume = c.queue.Len() > 1
		c.stopLocked()
	}
	if err := c.queue.Dequeue(index); err != nil {
		return models.Descriptor{}, err
	}

	if wasPlaying && resume {
		if cur, ok := c.queue.Current(); ok {
			c.requestPlayLocked(cur)
		}
	}
	return removed, nil
}

func (c *Controller) DequeueNext() (models.Descriptor, error) {
	return c.Dequeue(c.queue.NextIndex() + 1)
}

func (c *Controller) DequeuePrevious() (models.Descriptor, error) {
	return c.Dequeue(c.queue.PreviousIndex() + 1)
}

func (c *Controller) DequeueCurrent() (models.Descriptor, error) {
	return c.Dequeue(c.queue.CurrentIndex() + 1)
}

func (c *Controller) Shuffle() error {
	return c.queue.Shuffle()
}

// ClearQueue stops playback and empties the queue.
func (c *Controller) ClearQueue() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.queue.Current(); !ok {
		return shared.ErrEmptyQueue
	}
	c.stopLocked()
	return c.queue.Clear()
}

func (c *Controller) Loop() error   { return c.settings.SetLoop(true) }
func (c *Controller) Unloop() error { return c.settings.SetLoop(false) }

func (c *Controller) SetVolume(v int) error {
	if err := c.settings.SetVolume(v); err != nil {
		return err
	}
	return c.applyVolume()
}

func (c *Controller) IncreaseVolume() (int, error) {
	v, err := c.settings.IncreaseVolume()
	if err != nil {
		return c.settings.Volume(), err
	}
	return v, c.applyVolume()
}

func (c *Controller) DecreaseVolume() (int, error) {
	v, err := c.settings.DecreaseVolume()
	if err != nil {
		return c.settings.Volume(), err
	}
	return v, c.applyVolume()
}

func (c *Controller) Mute() error {
	if err := c.settings.Mute(); err != nil {
		return err
	}
	return c.applyVolume()
}

func (c *Controller) Unmute() error {
	if err := c.settings.Unmute(); err != nil {
		return err
	}
	return c.applyVolume()
}

// NowPlaying returns the current track while the player is active.
func (c *Controller) NowPlaying() (models.Descriptor, State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.queue.Current()
	if !ok || c.playback == nil {
		return models.Descriptor{}, Stopped, shared.ErrNotPlaying
	}
	return cur, c.stateLocked(), nil
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.queue.State()
	status := Status{
		State:    c.stateLocked(),
		Index:    st.CurrentIndex,
		Length:   len(st.Items),
		Settings: c.settings.Get(),
	}
	if len(st.Items) > 0 {
		status.Current = st.Items[st.CurrentIndex]
		status.HasCurrent = true
	}
	return status
}

// ResetCache stops playback and resets every registered cache. done is called after each one.
func (c *Controller) ResetCache(done func(name string)) error {
	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()

	if c.caches == nil {
		return nil
	}
	return c.caches.ResetAll(done)
}

func (c *Controller) stateLocked() State {
	switch {
	case c.playback == nil:
		return Stopped
	case c.playback.Paused():
		return Paused
	default:
		return Playing
	}
}

func (c *Controller) checkSongNumber(n int) error {
	if _, ok := c.queue.Current(); !ok {
		return shared.ErrEmptyQueue
	}
	if !c.queue.ValidSongNumber(n) {
		return fmt.Errorf("%w: %d (queue has %d songs)", shared.ErrInvalidSongNumber, n, c.queue.Len())
	}
	return nil
}

// appendToQueue queues d and starts downloading it when it just became the next track.
func (c *Controller) appendToQueue(d models.Descriptor) {
	if _, err := c.queue.Append(d); err != nil {
		c.reportError(err)
		return
	}

	cur, ok := c.queue.Current()
	if !ok {
		return
	}
	if next, _ := c.queue.Next(); next.ID != cur.ID && next.ID == d.ID {
		c.prefetch(next)
	}
}

func (c *Controller) applyVolume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playback == nil {
		return nil
	}
	return c.playback.SetVolume(c.settings.AudioVolume())
}

// requestPlayLocked fetches d on a worker goroutine and plays it unless superseded.
func (c *Controller) requestPlayLocked(d models.Descriptor) {
	if c.closed {
		return
	}
	c.gen++
	gen := c.gen

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		res, err := c.fetcher.Fetch(c.ctx, d.URL, d.ID)
		if err != nil {
			c.reportError(err)
			return
		}

		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			c.logger.Debug("superseded", "id", d.ID)
			return
		}
		started, err := c.startLocked(res)
		c.mu.Unlock()

		if err != nil {
			c.reportError(err)
			return
		}
		if c.onStart != nil {
			c.onStart(started)
		}
	}()
}

func (c *Controller) startLocked(res models.FetchResult) (models.Descriptor, error) {
	c.stopPlaybackLocked()

	d := res.Descriptor
	if err := c.queue.SetCurrent(d); err != nil {
		return d, err
	}

	pb, err := c.player.Start(c.ctx, res.File, c.settings.AudioVolume())
	if err != nil {
		return d, err
	}
	c.playback = pb
	c.logger.Info("now playing", "id", d.ID, "title", d.Title)

	if c.history != nil {
		if _, err := c.history.Record(d); err != nil {
			c.logger.Warn("failed to record history", "id", d.ID, "error", err)
		}
	}

	if next, ok := c.queue.Next(); ok && next.ID != d.ID {
		c.prefetch(next)
	}

	c.wg.Add(1)
	go c.watch(pb)
	return d, nil
}

// watch continues with the next track, or the same one when looping, after pb ends
// on its own.
func (c *Controller) watch(pb Playback) {
	defer c.wg.Done()

	select {
	case <-pb.Done():
	case <-c.ctx.Done():
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playback != pb {
		return
	}
	c.playback = nil

	if c.settings.Looping() {
		c.logger.Debug("looping")
		if cur, ok := c.queue.Current(); ok {
			c.requestPlayLocked(cur)
		}
		return
	}
	if next, ok := c.queue.Next(); ok {
		c.requestPlayLocked(next)
	}
}

func (c *Controller) prefetch(d models.Descriptor) {
	if c.ctx.Err() != nil {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.fetcher.Fetch(c.ctx, d.URL, d.ID); err != nil {
			c.reportError(err)
		}
	}()
}

// stopLocked stops playback and invalidates pending play requests.
func (c *Controller) stopLocked() {
	c.gen++
	c.stopPlaybackLocked()
}

func (c *Controller) stopPlaybackLocked() {
	pb := c.playback
	if pb == nil {
		return
	}
	c.playback = nil
	if err := pb.Stop(); err != nil {
		c.logger.Warn("failed to stop player", "error", err)
	}
}

func (c *Controller) reportError(err error) {
	if c.ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return
	}
	c.logger.Error("playback error", "error", err)
	if c.onError != nil {
		c.onError(err)
	}
}
