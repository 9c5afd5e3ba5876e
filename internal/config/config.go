package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth
	RegdownAPIKey string

	// see(label) resolution: a local references file or a label store
	// service, not both.
	ReferencesFile    string
	LabelStoreURL     string
	LabelStoreAPIKey  string
	LabelStorePrefix  string
	ReferenceURL      string // template; {label} is replaced
	ReferenceCacheTTL time.Duration
	MaxReferenceDepth int

	// Rendering
	DisableTables bool
	XHTML         bool

	// Upload limits
	MaxUploadBytes int64

	// Concurrent renders per batch request
	RenderWorkers int

	// Render latency window
	StatsWindow time.Duration

	// PDF
	PDFFallbackPdftotext bool

	LogLevel slog.Level
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		RegdownAPIKey: os.Getenv("REGDOWN_API_KEY"),

		ReferencesFile:    os.Getenv("REFERENCES_FILE"),
		LabelStoreURL:     os.Getenv("LABELSTORE_URL"),
		LabelStoreAPIKey:  os.Getenv("LABELSTORE_API_KEY"),
		LabelStorePrefix:  envOr("LABELSTORE_PREFIX", "regdown/labels"),
		ReferenceURL:      os.Getenv("REFERENCE_URL_TEMPLATE"),
		ReferenceCacheTTL: envDuration("REFERENCE_CACHE_TTL", 5*time.Minute),
		MaxReferenceDepth: envInt("MAX_REFERENCE_DEPTH", 16),

		DisableTables: envBool("DISABLE_TABLES", false),
		XHTML:         envBool("XHTML", false),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		RenderWorkers: envInt("RENDER_WORKERS", 4),

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.MaxReferenceDepth <= 0 {
		cfg.MaxReferenceDepth = 16
	}
	if cfg.ReferenceCacheTTL < 0 {
		cfg.ReferenceCacheTTL = 0
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.RenderWorkers <= 0 {
		cfg.RenderWorkers = 4
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.RegdownAPIKey == "" {
		return fmt.Errorf("REGDOWN_API_KEY is required")
	}
	if c.ReferencesFile != "" && c.LabelStoreURL != "" {
		return fmt.Errorf("REFERENCES_FILE and LABELSTORE_URL are mutually exclusive")
	}
	if c.ReferenceURL != "" && !strings.Contains(c.ReferenceURL, "{label}") {
		return fmt.Errorf("REFERENCE_URL_TEMPLATE must contain {label}")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(v)); err == nil {
			return l
		}
	}
	return fallback
}
