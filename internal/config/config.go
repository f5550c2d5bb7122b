package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Backend API configuration
	Backend BackendConfig

	// Gateway (local web server) configuration
	Gateway GatewayConfig

	// Local cache configuration
	Cache CacheConfig

	// Logging Configuration
	Logging LoggingConfig
}

// BackendConfig holds backend API configuration
type BackendConfig struct {
	// BaseURL is the Draftolio backend root, e.g. https://api.draftolio.gg
	BaseURL string
	// Origin is the public origin used to absolutize relative spectate URLs
	Origin string
}

// GatewayConfig holds configuration for the local gateway server
type GatewayConfig struct {
	ListenAddr string
	// AllowedOrigins is the CORS allow-list for the browser shell
	AllowedOrigins []string
	// AllowedRegions gates the draft routes (empty = no region restriction)
	AllowedRegions []string
	// KeepaliveSchedule is a cron expression for the session keepalive worker
	KeepaliveSchedule string
}

// CacheConfig holds local draft-history cache configuration
type CacheConfig struct {
	Path string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	backendURL := os.Getenv("DRAFTOLIO_BACKEND_URL")
	if backendURL == "" {
		backendURL = "http://localhost:8080"
	}

	origin := os.Getenv("DRAFTOLIO_ORIGIN")
	if origin == "" {
		origin = backendURL
	}

	listenAddr := os.Getenv("DRAFTOLIO_LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":4200"
	}

	allowedOrigins := splitList(os.Getenv("DRAFTOLIO_ALLOWED_ORIGINS"))
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:4200"}
	}

	allowedRegions := splitList(os.Getenv("DRAFTOLIO_ALLOWED_REGIONS"))

	keepalive := os.Getenv("DRAFTOLIO_KEEPALIVE_SCHEDULE")
	if keepalive == "" {
		keepalive = "@every 1m"
	}

	cachePath := os.Getenv("DRAFTOLIO_CACHE_PATH")
	if cachePath == "" {
		cachePath = "draftolio.sqlite"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}

	return &Config{
		Backend: BackendConfig{
			BaseURL: backendURL,
			Origin:  origin,
		},
		Gateway: GatewayConfig{
			ListenAddr:        listenAddr,
			AllowedOrigins:    allowedOrigins,
			AllowedRegions:    allowedRegions,
			KeepaliveSchedule: keepalive,
		},
		Cache: CacheConfig{
			Path: cachePath,
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
