package playback

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/shared"
	"github.com/desertthunder/ytbot/internal/store"
)

// QueueCacheName is the store name of the playback queue.
const QueueCacheName = "song_queue"

// Queue is the durable, ordered list of tracks with a cursor at the current one.
//
// Navigation is circular: the item after the last is the first. Every mutation is persisted
// before the method returns.
type Queue struct {
	mu     sync.Mutex
	store  store.Store[models.QueueState]
	logger *log.Logger
}

func NewQueue(s store.Store[models.QueueState], logger *log.Logger) *Queue {
	return &Queue{store: s, logger: shared.ComponentLogger(logger, "queue")}
}

func (q *Queue) Name() string { return QueueCacheName }

func (q *Queue) Reset() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.Reset()
}

// State returns a copy of the persisted queue.
func (q *Queue) State() models.QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()
	st := q.load()
	st.Items = slices.Clone(st.Items)
	return st
}

// Items returns a copy of the queued tracks.
func (q *Queue) Items() []models.Descriptor {
	return q.State().Items
}

func (q *Queue) Len() int {
	return len(q.State().Items)
}

func (q *Queue) CurrentIndex() int {
	return q.State().CurrentIndex
}

// Current returns the track under the cursor.
func (q *Queue) Current() (models.Descriptor, bool) {
	st := q.State()
	if len(st.Items) == 0 {
		return models.Descriptor{}, false
	}
	return st.Items[st.CurrentIndex], true
}

// NextIndex is the position after the cursor, wrapping to 0.
func (q *Queue) NextIndex() int {
	st := q.State()
	if len(st.Items) == 0 {
		return 0
	}
	return (st.CurrentIndex + 1) % len(st.Items)
}

// PreviousIndex is the position before the cursor, wrapping to the end.
func (q *Queue) PreviousIndex() int {
	st := q.State()
	if len(st.Items) == 0 {
		return 0
	}
	return (st.CurrentIndex - 1 + len(st.Items)) % len(st.Items)
}

// Next returns the track after the current one without moving the cursor.
func (q *Queue) Next() (models.Descriptor, bool) {
	st := q.State()
	if len(st.Items) == 0 {
		return models.Descriptor{}, false
	}
	return st.Items[(st.CurrentIndex+1)%len(st.Items)], true
}

// Previous returns the track before the current one without moving the cursor.
func (q *Queue) Previous() (models.Descriptor, bool) {
	st := q.State()
	if len(st.Items) == 0 {
		return models.Descriptor{}, false
	}
	return st.Items[(st.CurrentIndex-1+len(st.Items))%len(st.Items)], true
}

// Contains reports whether a track with d's id is queued.
func (q *Queue) Contains(d models.Descriptor) bool {
	return indexOf(q.State().Items, d.ID) >= 0
}

// ValidSongNumber reports whether n is a 1-based position in the queue.
func (q *Queue) ValidSongNumber(n int) bool {
	return n >= 1 && n <= q.Len()
}

// Append adds d at the end unless a track with the same id is already queued.
// It reports whether d was added.
func (q *Queue) Append(d models.Descriptor) (bool, error) {
	added := false
	err := q.update(func(st *models.QueueState) error {
		if indexOf(st.Items, d.ID) >= 0 {
			return nil
		}
		st.Items = append(st.Items, d)
		added = true
		return nil
	})
	return added, err
}

// Extend appends the tracks of ds that are not queued yet, in order.
func (q *Queue) Extend(ds []models.Descriptor) error {
	return q.update(func(st *models.QueueState) error {
		for _, d := range ds {
			if indexOf(st.Items, d.ID) < 0 {
				st.Items = append(st.Items, d)
			}
		}
		return nil
	})
}

// SetCurrent moves the cursor to the track with d's id.
func (q *Queue) SetCurrent(d models.Descriptor) error {
	return q.update(func(st *models.QueueState) error {
		i := indexOf(st.Items, d.ID)
		if i < 0 {
			q.logger.Debug("song not found in queue", "id", d.ID)
			return fmt.Errorf("%w: %s", shared.ErrNotInQueue, d)
		}
		st.CurrentIndex = i
		return nil
	})
}

// SetCurrentIndex moves the cursor to the 0-based index i.
func (q *Queue) SetCurrentIndex(i int) error {
	return q.update(func(st *models.QueueState) error {
		if i < 0 || i >= len(st.Items) {
			return fmt.Errorf("%w: %d", shared.ErrInvalidSongNumber, i+1)
		}
		st.CurrentIndex = i
		return nil
	})
}

// Dequeue removes the track at the 0-based index.
//
// Removing the current track makes the following one current, wrapping to the start when
// the last track was removed. Removing any other track keeps the cursor on the same track.
// Dequeue on an empty queue does nothing.
func (q *Queue) Dequeue(index int) error {
	return q.update(func(st *models.QueueState) error {
		if len(st.Items) == 0 {
			return nil
		}
		if index < 0 || index >= len(st.Items) {
			return fmt.Errorf("%w: %d", shared.ErrInvalidSongNumber, index+1)
		}

		current := st.Items[st.CurrentIndex]
		wasCurrent := st.Items[index].ID == current.ID
		st.Items = slices.Delete(st.Items, index, index+1)

		switch {
		case len(st.Items) == 0:
			st.CurrentIndex = 0
		case wasCurrent:
			st.CurrentIndex = index
			if st.CurrentIndex >= len(st.Items) {
				st.CurrentIndex = 0
			}
		default:
			st.CurrentIndex = max(indexOf(st.Items, current.ID), 0)
		}
		return nil
	})
}

// Shuffle randomly reorders the queue, keeping the cursor on the current track.
func (q *Queue) Shuffle() error {
	return q.update(func(st *models.QueueState) error {
		if len(st.Items) == 0 {
			return nil
		}
		current := st.Items[st.CurrentIndex]
		rand.Shuffle(len(st.Items), func(i, j int) {
			st.Items[i], st.Items[j] = st.Items[j], st.Items[i]
		})
		st.CurrentIndex = indexOf(st.Items, current.ID)
		return nil
	})
}

// Clear empties the queue and resets the cursor.
func (q *Queue) Clear() error {
	return q.update(func(st *models.QueueState) error {
		st.Items = nil
		st.CurrentIndex = 0
		return nil
	})
}

func (q *Queue) load() models.QueueState {
	rows, err := q.store.Load()
	if err != nil {
		q.logger.Error("failed to load queue", "error", err)
		return models.QueueState{}
	}
	return normalize(rows[store.DataKey])
}

func (q *Queue) update(fn func(*models.QueueState) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.store.Update(func(rows map[string]models.QueueState) error {
		st := normalize(rows[store.DataKey])
		if err := fn(&st); err != nil {
			return err
		}
		rows[store.DataKey] = st
		return nil
	})
}

// normalize clamps a cursor that points outside the items, which can happen when the
// queue file was edited by hand.
func normalize(st models.QueueState) models.QueueState {
	if st.CurrentIndex < 0 || st.CurrentIndex >= len(st.Items) {
		st.CurrentIndex = 0
	}
	return st
}

func indexOf(items []models.Descriptor, id string) int {
	return slices.IndexFunc(items, func(d models.Descriptor) bool { return d.ID == id })
}
