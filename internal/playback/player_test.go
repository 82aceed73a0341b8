package playback

import (
	"context"
	"strings"
	"testing"

	"github.com/desertthunder/ytbot/internal/shared"
)

func TestExecPlayerCommand(t *testing.T) {
	tests := []struct {
		name   string
		cfg    shared.PlayerConfig
		volume float64
		want   string
	}{
		{
			name:   "mpv with volume flag",
			cfg:    shared.PlayerConfig{Command: "mpv", Args: []string{"--no-video"}, VolumeFlag: "--volume="},
			volume: 0.5,
			want:   "mpv --no-video --volume=50 song.webm",
		},
		{
			name:   "muted",
			cfg:    shared.PlayerConfig{Command: "mpv", VolumeFlag: "--volume="},
			volume: 0,
			want:   "mpv --volume=0 song.webm",
		},
		{
			name:   "no volume flag",
			cfg:    shared.PlayerConfig{Command: "ffplay", Args: []string{"-nodisp", "-autoexit"}},
			volume: 0.3,
			want:   "ffplay -nodisp -autoexit song.webm",
		},
		{
			name: "default command",
			cfg:  shared.PlayerConfig{},
			want: "mpv song.webm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(NewExecPlayer(tt.cfg, nil).Command("song.webm", tt.volume), " ")
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExecPlayerMissingCommand(t *testing.T) {
	p := NewExecPlayer(shared.PlayerConfig{Command: "definitely-not-a-player-binary"}, nil)
	if _, err := p.Start(context.Background(), "song.webm", 1); err == nil {
		t.Error("expected error for missing player")
	}
}
