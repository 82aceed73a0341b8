package shared

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override config values.
const (
	EnvMaxDownloadsSize = "MAX_DOWNLOADS_SIZE_MBS"
	EnvMaxSearchResults = "MAX_SEARCH_RESULTS"
	EnvClearCache       = "CLEAR_CACHE"
	EnvProxy            = "YOUTUBE_PROXY"
	EnvLogLevel         = "YTBOT_LOG_LEVEL"
)

// ApplyEnv loads the given .env files (missing files are ignored) and applies
// environment overrides on top of config.
func ApplyEnv(config *Config, files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if v := os.Getenv(EnvMaxDownloadsSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvMaxDownloadsSize, v)
		}
		config.Storage.MaxDownloadsSizeMB = n
	}

	if v := os.Getenv(EnvMaxSearchResults); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvMaxSearchResults, v)
		}
		config.Search.MaxCachedResults = n
	}

	if os.Getenv(EnvClearCache) == "1" {
		config.Storage.ClearOnStart = true
	}
	if v := os.Getenv(EnvProxy); v != "" {
		config.Provider.Proxy = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.Logging.Level = v
	}

	return nil
}
