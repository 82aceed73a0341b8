package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/ytbot/internal/models"
)

func TestPalette(t *testing.T) {
	p := DefaultPalette()

	t.Run("renders text", func(t *testing.T) {
		tests := []struct {
			name string
			got  string
			want string
		}{
			{name: "title", got: p.Title("Queue"), want: "Queue"},
			{name: "ok", got: p.OK("done"), want: "done"},
			{name: "err", got: p.Err("failed"), want: "failed"},
			{name: "warn", got: p.Warn("careful"), want: "careful"},
			{name: "help", got: p.Help("type help"), want: "type help"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if !strings.Contains(tt.got, tt.want) {
					t.Errorf("expected %q in %q", tt.want, tt.got)
				}
			})
		}
	})

	t.Run("Error", func(t *testing.T) {
		if got := p.Error(nil); got != "" {
			t.Errorf("expected empty string for nil error, got %q", got)
		}
		if got := p.Error(errors.New("boom")); !strings.Contains(got, "boom") {
			t.Errorf("expected message in %q", got)
		}
	})

	t.Run("Queue", func(t *testing.T) {
		st := models.QueueState{
			Items:        []models.Descriptor{{ID: "a", Title: "First"}, {ID: "b", Title: "Second"}},
			CurrentIndex: 1,
		}
		got := p.Queue(st, "playing")
		if !strings.Contains(got, "1. First") || !strings.Contains(got, "Second") {
			t.Errorf("unexpected listing %q", got)
		}
		if got := p.Queue(models.QueueState{}, "stopped"); !strings.Contains(got, "queue is empty") {
			t.Errorf("unexpected empty listing %q", got)
		}
	})
}
