package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/shared"
)

// PlaylistMarker is the query parameter that identifies a playlist URL.
const PlaylistMarker = "list="

var videoIDRx = regexp.MustCompile(`(?:^|\W)(?:youtube(?:-nocookie)?\.com/(?:.*[?&]v=|v/|e(?:mbed)?/|shorts/|[^/]+/.+/)|youtu\.be/)([\w-]+)`)

// ParseReference extracts the video id and playlist flag from user input.
//
// Input with a playlist marker but no video id yields the whole URL as ID.
func ParseReference(text string) (models.Reference, error) {
	raw := strings.TrimSpace(text)
	ref := models.Reference{Raw: raw, IsPlaylist: strings.Contains(raw, PlaylistMarker)}

	if m := videoIDRx.FindStringSubmatch(raw); len(m) > 1 {
		ref.ID = m[1]
		return ref, nil
	}

	if ref.IsPlaylist {
		ref.ID = raw
		return ref, nil
	}
	return ref, fmt.Errorf("%w: %q", shared.ErrInvalidReference, raw)
}

// IsURL reports whether text looks like a link rather than a search query.
func IsURL(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://") ||
		strings.HasPrefix(t, "www.") || strings.HasPrefix(t, "youtu.be/") ||
		strings.HasPrefix(t, "youtube.com/") || strings.HasPrefix(t, "music.youtube.com/")
}
