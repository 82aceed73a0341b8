// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the default configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   defaultConfigPath,
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   defaultConfigPath,
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// searchCommand runs a text search and remembers the results.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search for songs",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results (defaults to search.default_limit)",
			},
			jsonFlag(),
		},
		Action: r.Search,
	}
}

// fetchCommand downloads a song or every entry of a playlist.
func fetchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Download a song or playlist into the download folder",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Action: r.Fetch,
	}
}

// queueCommand edits the persisted song queue.
func queueCommand(r *Runner) *cli.Command {
	songArg := []cli.Argument{&cli.StringArg{Name: "song"}}

	return &cli.Command{
		Name:  "queue",
		Usage: "Show and edit the song queue",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "List the queue",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.QueueShow,
			},
			{
				Name:      "add",
				Usage:     "Append a song or playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
				Action:    r.QueueAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a song by number, or next|previous|current",
				Arguments: songArg,
				Action:    r.QueueRemove,
			},
			{
				Name:   "next",
				Usage:  "Show the next song",
				Action: r.QueueNext,
			},
			{
				Name:    "previous",
				Aliases: []string{"prev"},
				Usage:   "Show the previous song",
				Action:  r.QueuePrevious,
			},
			{
				Name:   "current",
				Usage:  "Show the current song",
				Action: r.QueueCurrent,
			},
			{
				Name:   "shuffle",
				Usage:  "Shuffle the queue keeping the current song",
				Action: r.QueueShuffle,
			},
			{
				Name:   "clear",
				Usage:  "Remove every song",
				Action: r.QueueClear,
			},
			{
				Name:      "skip",
				Usage:     "Make a song number current",
				Arguments: songArg,
				Action:    r.QueueSkip,
			},
			{
				Name:  "export",
				Usage: "Export the queue as Markdown or text",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "markdown or text",
						Value:   "markdown",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (markdown) or file (text, stdout when empty)",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title",
						Value: "Queue",
					},
					&cli.BoolFlag{
						Name:  "cover",
						Usage: "Download the current song's thumbnail as cover image",
					},
				},
				Action: r.QueueExport,
			},
		},
	}
}

// playCommand starts the player with an interactive prompt.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play a song, a playlist, random songs or the saved queue",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "random",
				Usage: "Queue random songs from the configured artists",
			},
		},
		Action: r.Play,
	}
}

// cacheCommand inspects and maintains the download folder and caches.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and maintain the download cache",
		Commands: []*cli.Command{
			{
				Name:   "metrics",
				Usage:  "Show download folder size and file count",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.CacheMetrics,
			},
			{
				Name:   "reset",
				Usage:  "Delete downloads and clear every cache",
				Action: r.CacheReset,
			},
			{
				Name:   "prefetch",
				Usage:  "Download every queued song",
				Action: r.CachePrefetch,
			},
			{
				Name:   "evict",
				Usage:  "Delete least recently used downloads until under the size limit",
				Action: r.CacheEvict,
			},
		},
	}
}

// randomCommand manages the random songs lists.
func randomCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "random",
		Usage: "Manage random songs",
		Commands: []*cli.Command{
			{
				Name:  "configure",
				Usage: "Fetch the playlists listed in the random songs config",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "Random songs config file (defaults to storage.random_songs_config)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (defaults to storage.random_songs_dir)",
					},
				},
				Action: r.RandomConfigure,
			},
			{
				Name:  "sample",
				Usage: "Print a random selection of songs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Usage:   "Number of songs",
						Value:   10,
					},
				},
				Action: r.RandomSample,
			},
		},
	}
}

// historyCommand lists and exports played songs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recently played songs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of entries",
				Value:   20,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "text, csv or json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to file instead of stdout",
			},
		},
		Action: r.History,
		Commands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "Delete the play history",
				Action: r.HistoryClear,
			},
		},
	}
}

// serveCommand runs the diagnostics HTTP server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve read-only diagnostics over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (defaults to server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (defaults to server.port)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the queue endpoint in a browser",
			},
		},
		Action: r.Serve,
	}
}
