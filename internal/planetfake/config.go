package planetfake

import (
	"time"

	"github.com/aussiebroadwan/planet/pkg/envx"
	"github.com/aussiebroadwan/planet/pkg/httpx"
)

type Config struct {
	TokenSecret         string        // HS256 signing secret (default: random per process)
	TokenTTL            time.Duration // Access token lifetime (default: 24h)
	Issuer              string        // Token issuer (default: planetd)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	LoginLimit    httpx.RateLimitConfig // Register and login, per IP (default: httpx.LoginLimit)
	GenerateLimit httpx.RateLimitConfig // Suggestion generation, per user (default: httpx.GenerateLimit)

	// Location decides which calendar day "today" is. Defaults to time.Local.
	Location *time.Location
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

func LoadConfig() Config {
	return Config{
		TokenSecret:         envx.OrDefault("", "PLANETD_TOKEN_SECRET"),
		TokenTTL:            envx.DurationOrDefault("PLANETD_TOKEN_TTL", 24*time.Hour),
		Issuer:              envx.OrDefault("planetd", "PLANETD_ISSUER"),
		Env:                 envx.OrDefault("dev", "ENV"),
		LogLevel:            envx.OrDefault("info", "LOG_LEVEL"),
		LogFormat:           envx.OrDefault("json", "LOG_FORMAT"),
		Port:                envx.IntOrDefault("PORT", 8080),
		ShutdownGracePeriod: envx.DurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		LoginLimit:          httpx.ParseRateLimitFromEnv("LOGIN", httpx.LoginLimit),
		GenerateLimit:       httpx.ParseRateLimitFromEnv("GENERATE", httpx.GenerateLimit),
	}
}

func (cfg Config) withDefaults() Config {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "planetd"
	}
	if cfg.LoginLimit.RequestsPerWindow <= 0 || cfg.LoginLimit.Window <= 0 {
		cfg.LoginLimit = httpx.LoginLimit
	}
	if cfg.GenerateLimit.RequestsPerWindow <= 0 || cfg.GenerateLimit.Window <= 0 {
		cfg.GenerateLimit = httpx.GenerateLimit
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return cfg
}
