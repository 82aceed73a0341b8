package models

import (
	"fmt"
	"net/url"
	"time"
)

// Descriptor identifies a playable media item.
//
// Two descriptors describe the same item iff their IDs match; providers may return
// slightly different URLs or titles for the same id.
type Descriptor struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Same reports whether d and other refer to the same media item.
func (d Descriptor) Same(other Descriptor) bool {
	return d.ID == other.ID
}

// String renders the descriptor the way it is listed in the console.
func (d Descriptor) String() string {
	if d.Title == "" {
		return d.ID
	}
	return d.Title
}

// CanonicalURL builds the watch URL for a video id.
func CanonicalURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}

// ThumbnailFor returns the default high quality thumbnail for a video id.
func ThumbnailFor(id string) string {
	return fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", url.PathEscape(id))
}

// CacheEntry is one row of the descriptor cache.
type CacheEntry struct {
	Descriptor
	LastUsedAt time.Time `json:"last_used_at"`
}

// FolderMetrics describes the download folder at the moment it was measured.
type FolderMetrics struct {
	TotalBytes int64   `json:"total_bytes"`
	TotalMB    float64 `json:"total_mb"`
	FileCount  int     `json:"file_count"`
	LimitMB    float64 `json:"limit_mb"`
}

// QueueState is the persisted form of the playback queue.
type QueueState struct {
	Items        []Descriptor `json:"items"`
	CurrentIndex int          `json:"current_index"`
}

// Settings holds the persisted transport flags.
type Settings struct {
	Volume int  `json:"volume"`
	Loop   bool `json:"loop"`
	Mute   bool `json:"mute"`
}

// AudioVolume returns the effective gain in [0, 1].
func (s Settings) AudioVolume() float64 {
	if s.Mute {
		return 0
	}
	return float64(s.Volume) / 100
}

// Reference is parsed user input. For playlists without a video id, ID holds the whole URL.
type Reference struct {
	ID         string
	IsPlaylist bool
	Raw        string
}

// HistoryEntry records a track the controller started playing.
type HistoryEntry struct {
	ID       string    `json:"id"`
	Sequence int       `json:"sequence"`
	MediaID  string    `json:"media_id"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	PlayedAt time.Time `json:"played_at"`
}

// RandomSongsSource is one row of the random songs config file.
type RandomSongsSource struct {
	Artist      string `json:"artist"`
	PlaylistURL string `json:"playlist_url"`
}

// FetchResult is a descriptor materialized into a local file.
type FetchResult struct {
	File       string
	Descriptor Descriptor
}
