package services

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lrstanley/go-ytdlp"
	"golang.org/x/time/rate"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/shared"
)

// printTemplate is the per-entry line printed by yt-dlp: id, title, page url, thumbnail.
const printTemplate = "%(id)s\t%(title)s\t%(webpage_url)s\t%(thumbnail)s"

// entryTemplate is used for flat playlist listings where webpage_url is not populated.
const entryTemplate = "%(id)s\t%(title)s\t%(url)s\t%(thumbnail)s"

// ytdlpRequest describes a single yt-dlp invocation.
type ytdlpRequest struct {
	URL      string
	Download bool
	Playlist bool
	Flat     bool
	Search   int
}

// runFunc executes a request and returns yt-dlp's stdout.
type runFunc func(ctx context.Context, req ytdlpRequest) (string, error)

// YTDLPOptions configures a [YTDLPProvider].
type YTDLPOptions struct {
	DownloadDir       string
	Format            string
	Proxy             string
	RequestsPerSecond float64
	Searcher          Searcher
	Logger            *log.Logger
}

// YTDLPProvider implements [Provider] using the yt-dlp binary.
type YTDLPProvider struct {
	downloadDir string
	format      string
	proxy       string
	searcher    Searcher
	limiter     *rate.Limiter
	logger      *log.Logger
	run         runFunc
}

// NewYTDLPProvider creates a provider writing downloads to opts.DownloadDir.
func NewYTDLPProvider(opts YTDLPOptions) *YTDLPProvider {
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	format := opts.Format
	if format == "" {
		format = "bestaudio/best"
	}

	p := &YTDLPProvider{
		downloadDir: opts.DownloadDir,
		format:      format,
		proxy:       opts.Proxy,
		searcher:    opts.Searcher,
		limiter:     rate.NewLimiter(limit, 1),
		logger:      shared.ComponentLogger(opts.Logger, "provider"),
	}
	p.run = p.exec
	return p
}

// ResolveMetadata extracts metadata for ref and, when download is true, fetches the audio.
func (p *YTDLPProvider) ResolveMetadata(ctx context.Context, ref string, download bool) (models.Descriptor, error) {
	op := "metadata extraction"
	if download {
		op = "download"
	}

	out, err := p.call(ctx, ytdlpRequest{URL: ref, Download: download})
	if err != nil {
		return models.Descriptor{}, shared.NewProviderError(op, ref, err)
	}

	entries := parseEntries(out)
	if len(entries) == 0 {
		return models.Descriptor{}, shared.NewProviderError(op, ref, fmt.Errorf("could not extract info from %s", ref))
	}

	d := entries[0]
	if d.URL == "" {
		d.URL = ref
	}
	p.logger.Debug("resolved", "id", d.ID, "title", d.Title, "download", download)
	return d, nil
}

// ListPlaylistEntries lists a playlist, trying the flat extraction used by mixes first and
// falling back to full processing when it yields nothing.
func (p *YTDLPProvider) ListPlaylistEntries(ctx context.Context, ref string) iter.Seq2[models.Descriptor, error] {
	return func(yield func(models.Descriptor, error) bool) {
		out, err := p.call(ctx, ytdlpRequest{URL: ref, Playlist: true, Flat: true})
		if err != nil {
			yield(models.Descriptor{}, shared.NewProviderError("playlist listing", ref, err))
			return
		}

		entries := parseEntries(out)
		if len(entries) == 0 {
			p.logger.Debug("flat listing empty, processing playlist", "ref", ref)
			out, err = p.call(ctx, ytdlpRequest{URL: ref, Playlist: true})
			if err != nil {
				yield(models.Descriptor{}, shared.NewProviderError("playlist listing", ref, err))
				return
			}
			entries = parseEntries(out)
		}

		if len(entries) == 0 {
			err := fmt.Errorf("no entries found in %s, playlist could be private/empty/invalid", ref)
			yield(models.Descriptor{}, shared.NewProviderError("playlist listing", ref, err))
			return
		}

		for _, d := range entries {
			if !yield(d, nil) {
				return
			}
		}
	}
}

// Search uses the configured [Searcher], or yt-dlp's own ytsearch extractor when none is set.
func (p *YTDLPProvider) Search(ctx context.Context, query string, max int) ([]models.Descriptor, error) {
	if max <= 0 {
		max = 1
	}

	if p.searcher != nil {
		results, err := p.searcher.Search(ctx, query, max)
		if err != nil {
			return nil, shared.NewProviderError(p.searcher.Name()+" search", query, err)
		}
		return results, nil
	}

	out, err := p.call(ctx, ytdlpRequest{URL: query, Search: max, Flat: true})
	if err != nil {
		return nil, shared.NewProviderError("search", query, err)
	}

	results := parseEntries(out)
	if len(results) > max {
		results = results[:max]
	}
	return results, nil
}

func (p *YTDLPProvider) call(ctx context.Context, req ytdlpRequest) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return p.run(ctx, req)
}

// exec builds and runs the yt-dlp command for req.
func (p *YTDLPProvider) exec(ctx context.Context, req ytdlpRequest) (string, error) {
	cmd := ytdlp.New().
		NoWarnings().
		IgnoreConfig()

	if p.proxy != "" {
		cmd.Proxy(p.proxy)
	}

	var args []string
	target := req.URL

	switch {
	case req.Search > 0:
		cmd.Print(entryTemplate).PlaylistItems(fmt.Sprintf("1-%d", req.Search))
		target = fmt.Sprintf("ytsearch%d:%s", req.Search, req.URL)
	case req.Playlist:
		cmd.Print(entryTemplate)
		args = append(args, "--yes-playlist")
	case req.Download:
		cmd.Print(printTemplate).
			Format(p.format).
			Output(filepath.Join(p.downloadDir, "%(id)s.%(ext)s")).
			NoPlaylist().
			NoSimulate()
	default:
		cmd.Print(printTemplate).NoPlaylist()
		args = append(args, "--skip-download")
	}

	if req.Flat {
		cmd.FlatPlaylist()
	}

	p.logger.Debug("running yt-dlp", "target", target, "download", req.Download, "playlist", req.Playlist)
	res, err := cmd.Run(ctx, append(args, target)...)
	if err != nil {
		if res != nil && strings.TrimSpace(res.Stderr) != "" {
			return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(res.Stderr))
		}
		return "", err
	}
	return res.Stdout, nil
}

// parseEntries reads printTemplate/entryTemplate lines. Entries without an id are dropped
// and yt-dlp's "NA" placeholders become empty fields.
func parseEntries(out string) []models.Descriptor {
	var entries []models.Descriptor
	for line := range strings.SplitSeq(strings.TrimSpace(out), "\n") {
		parts := strings.Split(strings.TrimRight(line, "\r"), "\t")
		for i := range parts {
			if parts[i] == "NA" {
				parts[i] = ""
			}
		}
		if len(parts) < 2 || parts[0] == "" {
			continue
		}

		d := models.Descriptor{ID: parts[0], Title: parts[1]}
		if len(parts) > 2 {
			d.URL = parts[2]
		}
		if len(parts) > 3 {
			d.ThumbnailURL = parts[3]
		}

		if d.URL == "" || !strings.HasPrefix(d.URL, "http") {
			d.URL = models.CanonicalURL(d.ID)
		}
		if d.ThumbnailURL == "" {
			d.ThumbnailURL = models.ThumbnailFor(d.ID)
		}
		entries = append(entries, d)
	}
	return entries
}
