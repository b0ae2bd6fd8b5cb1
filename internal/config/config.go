package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DatabaseURL string

	// Search defaults applied when a scrape request omits them.
	DefaultLocation string
	DefaultCategory string

	// Source adapter settings.
	ScrapeUserAgent string
	ScrapeTimeout   time.Duration

	// Geocoding settings.
	NominatimBaseURL   string
	NominatimUserAgent string
	GeocodeTimeout     time.Duration
	GeocodeCacheSize   int
	GeocodeConcurrency int
	GeocodeRatePerSec  float64
}

// browserUserAgent is sent on scrape requests; listing sites block obvious
// non-browser clients.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	scrapeTimeout, err := parseDuration("SCRAPE_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatabaseURL: os.Getenv("DATABASE_URL"),

		DefaultLocation: envOrDefault("DEFAULT_LOCATION", "New York"),
		DefaultCategory: envOrDefault("DEFAULT_CATEGORY", "general"),

		ScrapeUserAgent: envOrDefault("SCRAPE_USER_AGENT", browserUserAgent),
		ScrapeTimeout:   scrapeTimeout,

		NominatimBaseURL:   envOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: envOrDefault("NOMINATIM_USER_AGENT", "WanderoApp/1.0"),
		GeocodeTimeout:     geocodeTimeout,
		GeocodeCacheSize:   envIntOrDefault("GEOCODE_CACHE_SIZE", 1000),
		GeocodeConcurrency: envIntOrDefault("GEOCODE_CONCURRENCY", 4),
		GeocodeRatePerSec:  envFloatOrDefault("GEOCODE_RATE_PER_SEC", 1),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.GeocodeConcurrency < 1 {
		return nil, errors.New("GEOCODE_CONCURRENCY must be at least 1")
	}
	if cfg.GeocodeRatePerSec <= 0 {
		return nil, errors.New("GEOCODE_RATE_PER_SEC must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envFloatOrDefault(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}
