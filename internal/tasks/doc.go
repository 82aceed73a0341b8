// Package tasks runs the work that turns references into playable files.
//
// # Dispatcher
//
// [Dispatcher.Fetch] materializes a descriptor into the download folder:
//
//  1. Requests for the same id share one in-flight call; later callers wait for its result.
//  2. The descriptor cache is consulted again inside the call, so a finished download is reused.
//  3. Otherwise the id is marked as fetching, [Dispatcher.CheckFolderSize] evicts least recently
//     used files until the folder fits its budget, and the provider downloads the audio.
//  4. The id is unmarked before the result is returned, on success and on failure.
//
// # Prefetcher
//
// [Prefetcher] downloads many descriptors with a worker pool and a rate limiter.
//
// # Loader
//
// [Loader] resolves references into descriptors and records search results.
//
// # Progress Reporting
//
// Long-running operations accept a chan<- [ProgressUpdate]. Updates use select with
// default so a slow reader never blocks the work.
package tasks
