package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aussiebroadwan/planet/internal/storage"
	"github.com/aussiebroadwan/planet/pkg/envx"
	"github.com/aussiebroadwan/planet/pkg/planetsdk"
)

type Config struct {
	BaseURL        string        // Planet API base URL (default: planetsdk.DefaultBaseURL)
	StorageMode    string        // Device storage mode (persistent, ephemeral) (default: persistent)
	StateFile      string        // Path to the SQLite state file (default: <user config dir>/planet/state.db)
	RequestTimeout time.Duration // Per-request timeout (default: 10s)
	Env            string        // Environment (dev, staging, prod) (default: prod)
	LogLevel       string        // Log level (debug, info, warn, error) (default: warn)
	LogFormat      string        // Log format (json, text) (default: text)
}

func LoadConfig() Config {
	return Config{
		// EXPO_PUBLIC_API_BASE_URL is what the mobile app was configured with.
		BaseURL:        envx.OrDefault(planetsdk.DefaultBaseURL, "PLANET_API_BASE_URL", "EXPO_PUBLIC_API_BASE_URL"),
		StorageMode:    envx.OrDefault(storage.ModePersistent, "PLANET_STORAGE_MODE"),
		StateFile:      envx.OrDefault(defaultStateFile(), "PLANET_STATE_FILE"),
		RequestTimeout: envx.DurationOrDefault("PLANET_REQUEST_TIMEOUT", planetsdk.DefaultTimeout),
		Env:            envx.OrDefault("prod", "ENV"),
		LogLevel:       envx.OrDefault("warn", "LOG_LEVEL"),
		LogFormat:      envx.OrDefault("text", "LOG_FORMAT"),
	}
}

// Validate reports configuration that cannot work.
func (cfg Config) Validate() error {
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return fmt.Errorf("api base url %q must start with http:// or https://", cfg.BaseURL)
	}

	switch cfg.StorageMode {
	case storage.ModePersistent:
		if cfg.StateFile == "" {
			return fmt.Errorf("state file is required in %s storage mode", storage.ModePersistent)
		}
	case storage.ModeEphemeral:
	default:
		return fmt.Errorf("unknown storage mode %q (want %s or %s)", cfg.StorageMode, storage.ModePersistent, storage.ModeEphemeral)
	}

	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", cfg.RequestTimeout)
	}
	return nil
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "planet-state.db"
	}
	return filepath.Join(dir, "planet", "state.db")
}
