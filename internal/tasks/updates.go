package tasks

import (
	"fmt"

	"github.com/desertthunder/ytbot/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	Resolve Phase = iota
	ListPlaylist
	Search
	Prefetch
	Evict
	RandomSongs
)

func (p Phase) String() string {
	switch p {
	case Resolve:
		return "resolve"
	case ListPlaylist:
		return "list_playlist"
	case Search:
		return "search"
	case Prefetch:
		return "prefetch"
	case Evict:
		return "evict"
	case RandomSongs:
		return "random_songs"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func resolveUpdate(ref string) ProgressUpdate {
	return ProgressUpdate{Phase: Resolve, Step: 1, Total: 1, Message: fmt.Sprintf("Resolving %s...", ref)}
}

func resolvedUpdate(d models.Descriptor) ProgressUpdate {
	return ProgressUpdate{Phase: Resolve, Step: 1, Total: 1, Message: fmt.Sprintf("Found: %s", d), Data: d}
}

func playlistEntryUpdate(step int, d models.Descriptor) ProgressUpdate {
	return ProgressUpdate{Phase: ListPlaylist, Step: step, Message: fmt.Sprintf("[%d] %s", step, d), Data: d}
}

func searchUpdate(query string, found int) ProgressUpdate {
	return ProgressUpdate{Phase: Search, Step: 1, Total: 1, Message: fmt.Sprintf("Found %d results for %q", found, query)}
}

func prefetchQueuedUpdate(step, total int, d models.Descriptor) ProgressUpdate {
	return ProgressUpdate{Phase: Prefetch, Step: step, Total: total, Message: fmt.Sprintf("[%d/%d] Fetching: %s...", step, total, d)}
}

func prefetchCompletedUpdate(step, total int, res PrefetchResult) ProgressUpdate {
	return ProgressUpdate{Phase: Prefetch, Step: step, Total: total, Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Descriptor), Data: res}
}

func prefetchFailedUpdate(step, total int, res PrefetchResult) ProgressUpdate {
	return ProgressUpdate{Phase: Prefetch, Step: step, Total: total, Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Descriptor, res.Error), Data: res}
}

func evictUpdate(step int, file string, size int64) ProgressUpdate {
	return ProgressUpdate{Phase: Evict, Step: step, Message: fmt.Sprintf("Evicted %s (%d bytes)", file, size)}
}

func randomSongsUpdate(step, total int, artist string, count int) ProgressUpdate {
	return ProgressUpdate{Phase: RandomSongs, Step: step, Total: total, Message: fmt.Sprintf("[%d/%d] %s: %d songs", step, total, artist, count)}
}
