package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	Search   SearchConfig   `toml:"search"`
	Provider ProviderConfig `toml:"provider"`
	Player   PlayerConfig   `toml:"player"`
	Playback PlaybackConfig `toml:"playback"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
}

// StorageConfig locates the cache stores and the download folder and sets its byte budget.
type StorageConfig struct {
	CacheDir           string `toml:"cache_dir"`
	DownloadDir        string `toml:"download_dir"`
	Backend            string `toml:"backend"`
	MaxDownloadsSizeMB int    `toml:"max_downloads_size_mb"`
	RandomSongsDir     string `toml:"random_songs_dir"`
	RandomSongsConfig  string `toml:"random_songs_config"`
	ClearOnStart       bool   `toml:"clear_on_start"`
}

// SearchConfig controls text search and the search result cache.
type SearchConfig struct {
	MaxCachedResults int    `toml:"max_cached_results"`
	DefaultLimit     int    `toml:"default_limit"`
	Source           string `toml:"source"`
}

// ProviderConfig contains yt-dlp options.
type ProviderConfig struct {
	Format            string  `toml:"format"`
	Proxy             string  `toml:"proxy"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	FetchWorkers      int     `toml:"fetch_workers"`
}

// PlayerConfig describes the external audio player launched for each track.
type PlayerConfig struct {
	Command    string   `toml:"command"`
	Args       []string `toml:"args"`
	VolumeFlag string   `toml:"volume_flag"`
}

// PlaybackConfig contains defaults for the transport controls.
type PlaybackConfig struct {
	DefaultVolume int `toml:"default_volume"`
	VolumeStep    int `toml:"volume_step"`
	RandomCount   int `toml:"random_count"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains diagnostics HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoggingConfig contains the log level.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// MaxDownloadsBytes returns the download folder budget in bytes.
func (c *Config) MaxDownloadsBytes() int64 {
	return int64(c.Storage.MaxDownloadsSizeMB) * BytesPerMB
}

// Validate checks the settings the rest of the application relies on.
func (c *Config) Validate() error {
	switch {
	case c.Storage.CacheDir == "":
		return fmt.Errorf("%w: storage.cache_dir is empty", ErrInvalidConfig)
	case c.Storage.DownloadDir == "":
		return fmt.Errorf("%w: storage.download_dir is empty", ErrInvalidConfig)
	case c.Storage.MaxDownloadsSizeMB <= 0:
		return fmt.Errorf("%w: storage.max_downloads_size_mb must be positive", ErrInvalidConfig)
	case c.Search.MaxCachedResults <= 0:
		return fmt.Errorf("%w: search.max_cached_results must be positive", ErrInvalidConfig)
	case c.Playback.DefaultVolume < 0 || c.Playback.DefaultVolume > 100:
		return fmt.Errorf("%w: playback.default_volume must be between 0 and 100", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Storage.Backend) {
	case "", "json", "bolt":
	default:
		return fmt.Errorf("%w: unknown storage.backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	switch strings.ToLower(c.Search.Source) {
	case "", "youtube", "ytmusic":
	default:
		return fmt.Errorf("%w: unknown search.source %q", ErrInvalidConfig, c.Search.Source)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
