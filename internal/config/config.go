package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// YouTube Data API
	YouTubeAPIKey  string
	YouTubeAPIBase string

	// TikTok snapshot configuration
	SnapshotBackend  string // "local" or "azure"
	SnapshotDir      string
	SnapshotDefault  string // default file when no user snapshot matches
	SnapshotURL      string // remote public snapshot document, optional
	StorageAccount   string
	StorageContainer string

	// Outbound HTTP behavior
	HTTPTimeout  time.Duration
	RetryMax     int
	RetryBackoff time.Duration

	// Cache TTLs
	YouTubeTTL  time.Duration
	TikTokTTL   time.Duration
	NegativeTTL time.Duration

	// Rolling history buffer
	HistoryCapacity int

	// Background sampler (optional; empty WatchStreams disables it)
	WatchStreams   []string // "youtube:<id>" / "tiktok:<user>" entries
	SampleInterval time.Duration

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8001"),
		Debug: getBoolEnv("DEBUG", false),

		YouTubeAPIKey:  strings.TrimSpace(getEnv("YOUTUBE_API_KEY", "")),
		YouTubeAPIBase: getEnv("YOUTUBE_API_BASE", "https://www.googleapis.com/youtube/v3"),

		SnapshotBackend:  getEnv("SNAPSHOT_BACKEND", "local"),
		SnapshotDir:      getEnv("SNAPSHOT_DIR", "."),
		SnapshotDefault:  getEnv("TIKTOK_DATA_FILE", "live_data1.json"),
		SnapshotURL:      getEnv("TIKTOK_STATS_URL", ""),
		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "snapshots"),

		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 12*time.Second),
		RetryMax:     getIntEnv("HTTP_RETRY_MAX", 3),
		RetryBackoff: getDurationEnv("HTTP_RETRY_BACKOFF", 400*time.Millisecond),

		YouTubeTTL:  getDurationEnv("CACHE_YOUTUBE_TTL", 30*time.Second),
		TikTokTTL:   getDurationEnv("CACHE_TIKTOK_TTL", 10*time.Second),
		NegativeTTL: getDurationEnv("CACHE_NEGATIVE_TTL", 5*time.Second),

		HistoryCapacity: getIntEnv("HISTORY_CAPACITY", 120),

		WatchStreams:   getSliceEnv("WATCH_STREAMS", nil),
		SampleInterval: getDurationEnv("SAMPLE_INTERVAL", 60*time.Second),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.SnapshotBackend != "local" && c.SnapshotBackend != "azure" {
		return fmt.Errorf("SNAPSHOT_BACKEND must be 'local' or 'azure'")
	}

	if c.SnapshotBackend == "azure" && c.StorageAccount == "" {
		return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required when SNAPSHOT_BACKEND is 'azure'")
	}

	if c.RetryMax < 1 {
		return fmt.Errorf("HTTP_RETRY_MAX must be at least 1")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	for _, w := range c.WatchStreams {
		parts := strings.SplitN(w, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("WATCH_STREAMS entry %q must look like 'youtube:<id>' or 'tiktok:<user>'", w)
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		// Bare numbers are treated as seconds, matching the original deployment
		// scripts (HTTP_TIMEOUT=12).
		if secs, err := strconv.ParseFloat(value, 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
