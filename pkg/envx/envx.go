// Package envx reads configuration from the environment.
package envx

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv seeds the environment from the given files (".env" when none
// are named). Variables already set win. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// OrDefault returns the first non-empty variable among keys, or def.
func OrDefault(def string, keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return def
}

func IntOrDefault(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return def
}

// DurationOrDefault accepts Go durations ("90s", "1h") or whole seconds.
func DurationOrDefault(key string, def time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return def
}
