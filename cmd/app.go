package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	bolt "go.etcd.io/bbolt"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/playback"
	"github.com/desertthunder/ytbot/internal/repositories"
	"github.com/desertthunder/ytbot/internal/services"
	"github.com/desertthunder/ytbot/internal/shared"
	"github.com/desertthunder/ytbot/internal/store"
	"github.com/desertthunder/ytbot/internal/tasks"
)

// boltFile is the database holding every cache when storage.backend is "bolt".
const boltFile = "ytbot.bolt"

// app is the set of components one command invocation works with.
type app struct {
	config     *shared.Config
	provider   services.Provider
	logger     *log.Logger
	boltDB     *bolt.DB
	db         *sql.DB
	caches     *store.Registry
	downloads  *repositories.DescriptorCache
	dispatcher *tasks.Dispatcher
	results    *repositories.SearchResults
	loader     *tasks.Loader
	prefetcher *tasks.Prefetcher
	queue      *playback.Queue
	settings   *playback.Settings
	history    *repositories.HistoryRepository
}

func openApp(cfg *shared.Config, provider services.Provider, logger *log.Logger) (a *app, err error) {
	a = &app{config: cfg, provider: provider, logger: logger, caches: store.NewRegistry()}
	defer func() {
		if err != nil {
			a.close()
			a = nil
		}
	}()

	for _, dir := range []string{cfg.Storage.CacheDir, cfg.Storage.DownloadDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	backend := cfg.Storage.Backend
	if backend == "bolt" {
		if a.boltDB, err = store.OpenBolt(filepath.Join(cfg.Storage.CacheDir, boltFile)); err != nil {
			return nil, err
		}
	}

	downloadsStore, err := store.Open[models.CacheEntry](backend, cfg.Storage.CacheDir, a.boltDB, repositories.DownloadsCacheName)
	if err != nil {
		return nil, err
	}
	if a.downloads, err = repositories.NewDescriptorCache(downloadsStore, cfg.Storage.DownloadDir, provider, logger); err != nil {
		return nil, err
	}
	a.dispatcher = tasks.NewDispatcher(a.downloads, provider, cfg.MaxDownloadsBytes(), logger)
	a.prefetcher = tasks.NewPrefetcher(a.dispatcher, logger)

	resultsStore, err := store.Open[[]models.Descriptor](backend, cfg.Storage.CacheDir, a.boltDB, repositories.SearchResultsCacheName)
	if err != nil {
		return nil, err
	}
	a.results = repositories.NewSearchResults(resultsStore, cfg.Search.MaxCachedResults)
	a.loader = tasks.NewLoader(provider, a.results, logger)

	queueStore, err := store.Open[models.QueueState](backend, cfg.Storage.CacheDir, a.boltDB, playback.QueueCacheName)
	if err != nil {
		return nil, err
	}
	a.queue = playback.NewQueue(queueStore, logger)

	settingsStore, err := store.Open[models.Settings](backend, cfg.Storage.CacheDir, a.boltDB, playback.SettingsCacheName)
	if err != nil {
		return nil, err
	}
	a.settings = playback.NewSettings(settingsStore, cfg.Playback.DefaultVolume, cfg.Playback.VolumeStep, logger)

	if a.db, err = shared.NewDatabase(cfg.Database.Path); err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(a.db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err := shared.RunMigrations(a.db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	a.history = repositories.NewHistoryRepository(a.db)

	a.caches.Register(a.downloads, a.results, a.queue, a.settings)

	if cfg.Storage.ClearOnStart {
		logger.Info("clearing caches on start")
		if err := a.caches.ResetAll(nil); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// newController wires a playback controller over the app's components.
func (a *app) newController(opts playback.ControllerOpts) *playback.Controller {
	opts.Queue = a.queue
	opts.Settings = a.settings
	opts.Fetcher = a.dispatcher
	opts.Loader = a.loader
	opts.History = a.history
	opts.Caches = a.caches
	opts.RandomDir = a.config.Storage.RandomSongsDir
	opts.RandomCount = a.config.Playback.RandomCount
	if opts.Logger == nil {
		opts.Logger = a.logger
	}
	return playback.NewController(opts)
}

func (a *app) prefetchOpts() tasks.PrefetchOpts {
	return tasks.PrefetchOpts{
		NumWorkers: a.config.Provider.FetchWorkers,
		RateLimit:  a.config.Provider.RequestsPerSecond,
	}
}

func (a *app) close() error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.boltDB != nil {
		errs = append(errs, a.boltDB.Close())
	}
	return errors.Join(errs...)
}
