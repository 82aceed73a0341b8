// Package services wraps the external media provider behind the [Provider] interface.
//
// # Provider
//
// A [Provider] resolves references into [models.Descriptor] values, optionally
// downloading the audio, lists playlist entries lazily and answers text searches.
// [YTDLPProvider] implements it on top of the yt-dlp binary through go-ytdlp.
// Every yt-dlp invocation waits on a shared [rate.Limiter].
//
// # Searchers
//
// Text search is delegated to a [Searcher]:
//   - [YouTubeSearcher] : scrapes www.youtube.com results with ytsearch
//   - [MusicSearcher] : queries YouTube Music with ytmusic
//
// # References
//
// [ParseReference] turns user input into a [models.Reference]. Watch, shorts,
// embed, youtu.be and music.youtube.com URLs yield a video id; a "list=" parameter
// marks a playlist.
//
// # Errors
//
// All provider failures are returned as [*shared.ProviderError], so callers can
// match them with errors.Is(err, shared.ErrProvider) and still show the original
// provider message.
package services
