package services

import (
	"context"
	"iter"

	"github.com/desertthunder/ytbot/internal/models"
)

// Provider is the media source the caches and the playback controller depend on.
type Provider interface {
	// ResolveMetadata extracts the descriptor for ref. When download is true the
	// audio is written to the download folder as <id>.<ext> before returning.
	ResolveMetadata(ctx context.Context, ref string, download bool) (models.Descriptor, error)

	// ListPlaylistEntries lazily yields the entries of a playlist. The sequence yields a
	// single error when the playlist has no retrievable entries.
	ListPlaylistEntries(ctx context.Context, ref string) iter.Seq2[models.Descriptor, error]

	// Search returns at most max results for a free-text query.
	Search(ctx context.Context, query string, max int) ([]models.Descriptor, error)
}

// Searcher answers free-text queries.
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]models.Descriptor, error)
	Name() string
}

// Resolver is the subset of [Provider] needed to rebuild a descriptor for a known id.
type Resolver interface {
	ResolveMetadata(ctx context.Context, ref string, download bool) (models.Descriptor, error)
}
