package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the skill bridge service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	LogLevel  string
	LogPretty bool

	WebhookURL     string
	WebhookAPIKey  string
	WebhookTimeout time.Duration

	HistoryRetention int
	HistoryWindow    int
}

// Load reads environment variables and applies safe defaults.
// N8N_WEBHOOK_URL has no default on purpose: a bridge silently pointed
// at the wrong workflow host is worse than one that refuses to start.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "skillbridge"),
		LogLevel:         envOrDefault("APP_LOG_LEVEL", "info"),
		WebhookURL:       envTrimmed("N8N_WEBHOOK_URL"),
		WebhookAPIKey:    envTrimmed("N8N_API_KEY"),
		WebhookTimeout:   10 * time.Second,
		ShutdownTimeout:  15 * time.Second,
		HistoryRetention: 10,
		HistoryWindow:    5,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.WebhookTimeout, err = durationFromEnv("N8N_WEBHOOK_TIMEOUT", cfg.WebhookTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryRetention, err = intFromEnv("APP_HISTORY_RETENTION", cfg.HistoryRetention)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryWindow, err = intFromEnv("APP_HISTORY_WINDOW", cfg.HistoryWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.LogPretty, err = boolFromEnv("APP_LOG_PRETTY", cfg.LogPretty)
	if err != nil {
		return Config{}, err
	}

	if cfg.WebhookURL == "" {
		return Config{}, fmt.Errorf("N8N_WEBHOOK_URL is required")
	}
	u, err := url.Parse(cfg.WebhookURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("N8N_WEBHOOK_URL must be an absolute URL")
	}
	if cfg.WebhookTimeout < time.Second {
		return Config{}, fmt.Errorf("N8N_WEBHOOK_TIMEOUT must be at least 1s")
	}
	if cfg.HistoryRetention <= 0 {
		return Config{}, fmt.Errorf("APP_HISTORY_RETENTION must be positive")
	}
	if cfg.HistoryWindow <= 0 || cfg.HistoryWindow > cfg.HistoryRetention {
		return Config{}, fmt.Errorf("APP_HISTORY_WINDOW must be in 1..APP_HISTORY_RETENTION")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
