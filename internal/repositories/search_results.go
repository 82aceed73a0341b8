package repositories

import (
	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/store"
)

// SearchResultsCacheName is the store name of the search result cache.
const SearchResultsCacheName = "search_results"

// SearchResults remembers the most recent search and resolution results so that picking a
// result does not need another provider round trip. Oldest entries are dropped first.
type SearchResults struct {
	store store.Store[[]models.Descriptor]
	max   int
}

func NewSearchResults(s store.Store[[]models.Descriptor], max int) *SearchResults {
	if max <= 0 {
		max = 1
	}
	return &SearchResults{store: s, max: max}
}

func (r *SearchResults) Name() string { return SearchResultsCacheName }

func (r *SearchResults) Reset() error { return r.store.Reset() }

// Get looks up a remembered descriptor by id.
func (r *SearchResults) Get(id string) (models.Descriptor, bool) {
	items, err := r.items()
	if err != nil {
		return models.Descriptor{}, false
	}
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].ID == id {
			return items[i], true
		}
	}
	return models.Descriptor{}, false
}

func (r *SearchResults) Append(d models.Descriptor) error {
	return r.Extend([]models.Descriptor{d})
}

// Extend records ds as the newest results. A result already present moves to the end.
func (r *SearchResults) Extend(ds []models.Descriptor) error {
	if len(ds) == 0 {
		return nil
	}

	return r.store.Update(func(m map[string][]models.Descriptor) error {
		items := m[store.DataKey]
		for _, d := range ds {
			items = removeID(items, d.ID)
			items = append(items, d)
		}
		if over := len(items) - r.max; over > 0 {
			items = append([]models.Descriptor(nil), items[over:]...)
		}
		m[store.DataKey] = items
		return nil
	})
}

func (r *SearchResults) Len() int {
	items, err := r.items()
	if err != nil {
		return 0
	}
	return len(items)
}

func (r *SearchResults) items() ([]models.Descriptor, error) {
	m, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	return m[store.DataKey], nil
}

func removeID(items []models.Descriptor, id string) []models.Descriptor {
	for i := range items {
		if items[i].ID == id {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}
