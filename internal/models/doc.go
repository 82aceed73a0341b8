// Package models defines the domain records shared by the ytbot caches, queue and history.
//
// The package contains two categories of types:
//
// 1. Media records produced by the provider
//   - [Descriptor] : playable unit (id, title, url, thumbnail), identified by id only
//   - [Reference] : parsed user input pointing at a single item or a playlist
//
// 2. Persisted state
//   - [CacheEntry] : descriptor cache row with its explicit last-used clock
//   - [QueueState] : playback queue items and cursor
//   - [Settings] : volume, loop and mute flags
//   - [HistoryEntry] : one started track in the sqlite history
//   - [RandomSongsSource] : artist playlist used to seed random playback
//
// [FolderMetrics] is the read-only view of the download folder.
package models
