// Package repositories implements the persistent views ytbot keeps over its caches.
//
// Key Implementations:
//   - [DescriptorCache] : id -> descriptor rows reconciled against the download folder on every read
//   - [SearchResults] : bounded, insertion-ordered cache of recent search results
//   - [HistoryRepository] : sqlite log of started tracks
//
// The descriptor cache treats the download folder and the persisted rows as two
// independently mutable stores. A row whose file disappeared is dropped, and a file
// without a row is re-resolved through the provider, so crashes mid-download or manual
// file edits never wedge the cache.
//
// Sequence numbers provide stable, human-readable ordering for history rows independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
