package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Walker    WalkerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Dataset   DatasetConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity, i.e. the number of walks that can
	// drive the form at the same time.
	MaxPages int // default: 4

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// WalkerConfig controls how the calculator form is driven.
type WalkerConfig struct {
	// StartURL is the first screen of the form.
	StartURL string // default: "https://calculate.fairwork.gov.au/FindYourAward"

	// NavigationTimeout bounds each navigation between screens.
	NavigationTimeout time.Duration // default: 20s

	// ActionTimeout bounds a single click, select or read.
	ActionTimeout time.Duration // default: 10s

	// ClickDelayMin and ClickDelayMax bound the random pause before a click.
	ClickDelayMin time.Duration // default: 100ms
	ClickDelayMax time.Duration // default: 200ms

	// PassRetries is how many times a failed pass through the form is retried.
	PassRetries int // default: 3

	// StepsPerSecond caps the rate of screen transitions per walk.
	StepsPerSecond float64 // default: 2

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// AcceptLanguage is sent with every browser request.
	AcceptLanguage string // default: "en-AU,en;q=0.9"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the award listing cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached listings.
	MaxEntries int // default: 100

	// TTL is how long a cached award listing is served.
	TTL time.Duration // default: 6h
}

// DatasetConfig controls where walk results are persisted.
type DatasetConfig struct {
	// Sink is "jsonl", "sqlite" or "memory".
	Sink string // default: "jsonl"

	// Path is the output file for the jsonl and sqlite sinks.
	Path string // default: "dataset.jsonl"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// SlogLevel maps Level to a slog level. Unknown names mean info.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("RATEWALK_HOST", "0.0.0.0"),
			Port: envIntOr("RATEWALK_PORT", 8080),
			Mode: envOr("RATEWALK_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("RATEWALK_HEADLESS", true),
			MaxPages:     envIntOr("RATEWALK_MAX_PAGES", 4),
			DefaultProxy: os.Getenv("RATEWALK_PROXY"),
			NoSandbox:    envBoolOr("RATEWALK_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("RATEWALK_BROWSER_BIN"),
		},
		Walker: WalkerConfig{
			StartURL:          envOr("RATEWALK_START_URL", "https://calculate.fairwork.gov.au/FindYourAward"),
			NavigationTimeout: envDurationOr("RATEWALK_NAV_TIMEOUT", 20*time.Second),
			ActionTimeout:     envDurationOr("RATEWALK_ACTION_TIMEOUT", 10*time.Second),
			ClickDelayMin:     envDurationOr("RATEWALK_CLICK_DELAY_MIN", 100*time.Millisecond),
			ClickDelayMax:     envDurationOr("RATEWALK_CLICK_DELAY_MAX", 200*time.Millisecond),
			PassRetries:       envIntOr("RATEWALK_PASS_RETRIES", 3),
			StepsPerSecond:    envFloatOr("RATEWALK_STEPS_PER_SECOND", 2.0),
			BlockedResourceTypes: envSliceOr("RATEWALK_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			AcceptLanguage: envOr("RATEWALK_ACCEPT_LANGUAGE", "en-AU,en;q=0.9"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("RATEWALK_AUTH_ENABLED", true),
			APIKeys: envSliceOr("RATEWALK_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("RATEWALK_RATE_RPS", 2.0),
			Burst:             envIntOr("RATEWALK_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("RATEWALK_CACHE_MAX_ENTRIES", 100),
			TTL:        envDurationOr("RATEWALK_CACHE_TTL", 6*time.Hour),
		},
		Dataset: DatasetConfig{
			Sink: envOr("RATEWALK_DATASET_SINK", "jsonl"),
			Path: envOr("RATEWALK_DATASET_PATH", "dataset.jsonl"),
		},
		Log: LogConfig{
			Level:  envOr("RATEWALK_LOG_LEVEL", "info"),
			Format: envOr("RATEWALK_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
