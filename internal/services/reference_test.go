package services

import (
	"errors"
	"testing"

	"github.com/desertthunder/ytbot/internal/shared"
)

func TestParseReference(t *testing.T) {
	tc := []struct {
		name       string
		input      string
		id         string
		isPlaylist bool
		wantErr    bool
	}{
		{name: "watch url", input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", id: "dQw4w9WgXcQ"},
		{name: "watch url with extra params", input: "https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ&t=42", id: "dQw4w9WgXcQ"},
		{name: "short link", input: "https://youtu.be/dQw4w9WgXcQ?si=abc", id: "dQw4w9WgXcQ"},
		{name: "shorts", input: "https://youtube.com/shorts/a1B2c3D4e5F", id: "a1B2c3D4e5F"},
		{name: "embed", input: "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", id: "dQw4w9WgXcQ"},
		{name: "music", input: "https://music.youtube.com/watch?v=Zi_XLOBDo_Y", id: "Zi_XLOBDo_Y"},
		{name: "watch inside playlist", input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=RDdQw4w9WgXcQ", id: "dQw4w9WgXcQ", isPlaylist: true},
		{
			name:       "bare playlist",
			input:      "https://www.youtube.com/playlist?list=PL1234567890",
			id:         "https://www.youtube.com/playlist?list=PL1234567890",
			isPlaylist: true,
		},
		{name: "padded input", input: "  https://youtu.be/abc-DEF_123  ", id: "abc-DEF_123"},
		{name: "free text", input: "never gonna give you up", wantErr: true},
		{name: "other site", input: "https://vimeo.com/12345", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseReference(tt.input)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidReference) {
					t.Errorf("expected ErrInvalidReference, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ref.ID != tt.id {
				t.Errorf("expected id %q, got %q", tt.id, ref.ID)
			}
			if ref.IsPlaylist != tt.isPlaylist {
				t.Errorf("expected playlist=%v, got %v", tt.isPlaylist, ref.IsPlaylist)
			}
		})
	}
}

func TestIsURL(t *testing.T) {
	for input, want := range map[string]bool{
		"https://youtu.be/abc":      true,
		"www.youtube.com/watch?v=a": true,
		"lofi hip hop":              false,
		"":                          false,
	} {
		if got := IsURL(input); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", input, got, want)
		}
	}
}
