package tasks

import (
	"context"
	"iter"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/repositories"
	"github.com/desertthunder/ytbot/internal/services"
	"github.com/desertthunder/ytbot/internal/shared"
)

// Loader turns references and queries into descriptors, remembering every single-item
// resolution and search result in the search result cache.
type Loader struct {
	provider services.Provider
	results  *repositories.SearchResults
	logger   *log.Logger
}

func NewLoader(provider services.Provider, results *repositories.SearchResults, logger *log.Logger) *Loader {
	return &Loader{provider: provider, results: results, logger: shared.ComponentLogger(logger, "loader")}
}

// Load yields the descriptors a reference points at.
//
// A single item is looked up in the search result cache before asking the provider.
// Playlist entries are yielded as the provider lists them.
func (l *Loader) Load(ctx context.Context, prog chan<- ProgressUpdate, ref models.Reference) iter.Seq2[models.Descriptor, error] {
	return func(yield func(models.Descriptor, error) bool) {
		if ref.IsPlaylist {
			step := 0
			for d, err := range l.provider.ListPlaylistEntries(ctx, ref.Raw) {
				if err != nil {
					yield(models.Descriptor{}, err)
					return
				}
				step++
				sendProgress(prog, playlistEntryUpdate(step, d))
				if !yield(d, nil) {
					return
				}
			}
			return
		}

		if d, ok := l.results.Get(ref.ID); ok {
			l.logger.Debug("search result cache hit", "id", ref.ID)
			sendProgress(prog, resolvedUpdate(d))
			yield(d, nil)
			return
		}

		sendProgress(prog, resolveUpdate(ref.Raw))
		d, err := l.provider.ResolveMetadata(ctx, ref.Raw, false)
		if err != nil {
			yield(models.Descriptor{}, shared.NewProviderError("metadata extraction", ref.Raw, err))
			return
		}
		if err := l.results.Append(d); err != nil {
			l.logger.Warn("failed to remember resolution", "id", d.ID, "error", err)
		}
		sendProgress(prog, resolvedUpdate(d))
		yield(d, nil)
	}
}

// LoadAll collects every descriptor of ref.
func (l *Loader) LoadAll(ctx context.Context, prog chan<- ProgressUpdate, ref models.Reference) ([]models.Descriptor, error) {
	var out []models.Descriptor
	for d, err := range l.Load(ctx, prog, ref) {
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Search queries the provider and remembers the results.
func (l *Loader) Search(ctx context.Context, prog chan<- ProgressUpdate, query string, max int) ([]models.Descriptor, error) {
	results, err := l.provider.Search(ctx, query, max)
	if err != nil {
		return nil, err
	}
	sendProgress(prog, searchUpdate(query, len(results)))

	if err := l.results.Extend(results); err != nil {
		l.logger.Warn("failed to remember search results", "error", err)
	}
	return results, nil
}

// Remember adds ds to the search result cache.
func (l *Loader) Remember(ds []models.Descriptor) error {
	return l.results.Extend(ds)
}
