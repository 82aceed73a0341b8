package playback

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/shared"
	"github.com/desertthunder/ytbot/internal/store"
)

// SettingsCacheName is the store name of the transport settings.
const SettingsCacheName = "settings"

const (
	defaultVolume     = 50
	defaultVolumeStep = 10
)

// Settings persists volume, loop and mute across restarts.
type Settings struct {
	mu       sync.Mutex
	store    store.Store[models.Settings]
	defaults models.Settings
	step     int
	logger   *log.Logger
}

// NewSettings uses volume until a value has been saved. step is the increment of
// [Settings.IncreaseVolume] and [Settings.DecreaseVolume].
func NewSettings(s store.Store[models.Settings], volume, step int, logger *log.Logger) *Settings {
	if volume < 0 || volume > 100 {
		volume = defaultVolume
	}
	if step <= 0 {
		step = defaultVolumeStep
	}
	return &Settings{
		store:    s,
		defaults: models.Settings{Volume: volume},
		step:     step,
		logger:   shared.ComponentLogger(logger, SettingsCacheName),
	}
}

func (s *Settings) Name() string { return SettingsCacheName }

func (s *Settings) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Reset()
}

// Get returns the current settings.
func (s *Settings) Get() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.store.Load()
	if err != nil {
		s.logger.Error("failed to load settings", "error", err)
		return s.defaults
	}
	if v, ok := rows[store.DataKey]; ok {
		return v
	}
	return s.defaults
}

func (s *Settings) Volume() int          { return s.Get().Volume }
func (s *Settings) Looping() bool        { return s.Get().Loop }
func (s *Settings) Muted() bool          { return s.Get().Mute }
func (s *Settings) AudioVolume() float64 { return s.Get().AudioVolume() }

// SetVolume stores v, which must be within 0..100.
func (s *Settings) SetVolume(v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: got %d", shared.ErrInvalidVolume, v)
	}
	return s.update(func(st *models.Settings) error {
		st.Volume = v
		return nil
	})
}

// IncreaseVolume raises the volume by one step, stopping at 100.
func (s *Settings) IncreaseVolume() (int, error) {
	var v int
	err := s.update(func(st *models.Settings) error {
		if st.Volume >= 100 {
			return shared.ErrMaxVolume
		}
		st.Volume = min(st.Volume+s.step, 100)
		v = st.Volume
		return nil
	})
	return v, err
}

// DecreaseVolume lowers the volume by one step, stopping at 0.
func (s *Settings) DecreaseVolume() (int, error) {
	var v int
	err := s.update(func(st *models.Settings) error {
		if st.Volume <= 0 {
			return shared.ErrMinVolume
		}
		st.Volume = max(st.Volume-s.step, 0)
		v = st.Volume
		return nil
	})
	return v, err
}

func (s *Settings) Mute() error {
	return s.update(func(st *models.Settings) error {
		if st.Mute {
			return shared.ErrAlreadyMuted
		}
		st.Mute = true
		return nil
	})
}

func (s *Settings) Unmute() error {
	return s.update(func(st *models.Settings) error {
		if !st.Mute {
			return shared.ErrAlreadyUnmuted
		}
		st.Mute = false
		return nil
	})
}

// SetLoop turns replay of the current track on or off.
func (s *Settings) SetLoop(loop bool) error {
	return s.update(func(st *models.Settings) error {
		st.Loop = loop
		return nil
	})
}

func (s *Settings) update(fn func(*models.Settings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Update(func(rows map[string]models.Settings) error {
		st, ok := rows[store.DataKey]
		if !ok {
			st = s.defaults
		}
		if err := fn(&st); err != nil {
			return err
		}
		rows[store.DataKey] = st
		return nil
	})
}
