//go:build unix

package playback

import (
	"context"
	"testing"
	"time"

	"github.com/desertthunder/ytbot/internal/shared"
)

func TestExecPlayerLifecycle(t *testing.T) {
	p := NewExecPlayer(shared.PlayerConfig{Command: "sh", Args: []string{"-c", "sleep 5", "sh"}}, nil)

	pb, err := p.Start(context.Background(), "track.webm", 0.5)
	if err != nil {
		t.Fatalf("failed to start: %v", err)
	}

	if err := pb.Pause(); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if !pb.Paused() {
		t.Error("expected paused")
	}
	if err := pb.Resume(); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if pb.Paused() {
		t.Error("expected resumed")
	}

	if err := pb.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	select {
	case <-pb.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not end after stop")
	}
}

func TestExecPlayerFinishes(t *testing.T) {
	p := NewExecPlayer(shared.PlayerConfig{Command: "sh", Args: []string{"-c", "exit 0", "sh"}}, nil)

	pb, err := p.Start(context.Background(), "track.webm", 1)
	if err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	select {
	case <-pb.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not end")
	}
}
