package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"

	"github.com/desertthunder/ytbot/internal/models"
)

// NewSearcher returns the searcher for a config source name ("youtube" or "ytmusic").
func NewSearcher(source string) (Searcher, error) {
	switch strings.ToLower(source) {
	case "", "youtube":
		return NewYouTubeSearcher(), nil
	case "ytmusic":
		return NewMusicSearcher(), nil
	default:
		return nil, fmt.Errorf("unknown search source %q", source)
	}
}

// YouTubeSearcher searches www.youtube.com.
type YouTubeSearcher struct {
	client *ytsearch.Client
}

func NewYouTubeSearcher() *YouTubeSearcher {
	return &YouTubeSearcher{client: ytsearch.NewClient(nil)}
}

func (s *YouTubeSearcher) Name() string { return "youtube" }

// Search returns up to max video results for query.
func (s *YouTubeSearcher) Search(ctx context.Context, query string, max int) ([]models.Descriptor, error) {
	res, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]models.Descriptor, 0, max)
	seen := make(map[string]bool)
	for _, v := range res.Results {
		if len(out) >= max {
			break
		}
		if v.VideoID == "" || seen[v.VideoID] {
			continue
		}
		seen[v.VideoID] = true
		out = append(out, models.Descriptor{
			ID:           v.VideoID,
			Title:        v.Title,
			URL:          models.CanonicalURL(v.VideoID),
			ThumbnailURL: models.ThumbnailFor(v.VideoID),
		})
	}
	return out, nil
}

// MusicSearcher searches YouTube Music tracks.
type MusicSearcher struct{}

func NewMusicSearcher() *MusicSearcher {
	return &MusicSearcher{}
}

func (s *MusicSearcher) Name() string { return "ytmusic" }

// Search returns up to max tracks, titled "<title> - <first artist>".
//
// The ytmusic client takes no context, so cancellation is only checked before the request.
func (s *MusicSearcher) Search(ctx context.Context, query string, max int) ([]models.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, err := ytmusic.TrackSearch(query).Next()
	if err != nil {
		return nil, err
	}

	out := make([]models.Descriptor, 0, max)
	for _, v := range r.Tracks {
		if len(out) >= max {
			break
		}
		if v.VideoID == "" {
			continue
		}

		title := v.Title
		if len(v.Artists) > 0 && v.Artists[0].Name != "" {
			title += " - " + v.Artists[0].Name
		}
		out = append(out, models.Descriptor{
			ID:           v.VideoID,
			Title:        title,
			URL:          models.CanonicalURL(v.VideoID),
			ThumbnailURL: models.ThumbnailFor(v.VideoID),
		})
	}
	return out, nil
}
