package config

import (
	"testing"
	"time"
)

func TestLoadRequiresWebhookURL(t *testing.T) {
	setCoreEnvEmpty(t)

	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error without N8N_WEBHOOK_URL")
	}
}

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("N8N_WEBHOOK_URL", "https://n8n.example.com/webhook/alexa-chat")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want :8080", cfg.BindAddr)
	}
	if cfg.WebhookTimeout != 10*time.Second {
		t.Fatalf("WebhookTimeout = %v, want 10s", cfg.WebhookTimeout)
	}
	if cfg.HistoryRetention != 10 || cfg.HistoryWindow != 5 {
		t.Fatalf("history settings = %d/%d, want 10/5", cfg.HistoryRetention, cfg.HistoryWindow)
	}
	if cfg.WebhookAPIKey != "" {
		t.Fatalf("WebhookAPIKey = %q, want empty default", cfg.WebhookAPIKey)
	}
}

func TestLoadRejectsRelativeWebhookURL(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("N8N_WEBHOOK_URL", "/webhook/alexa-chat")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error for relative webhook URL")
	}
}

func TestLoadRejectsWindowLargerThanRetention(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("N8N_WEBHOOK_URL", "https://n8n.example.com/webhook/alexa-chat")
	t.Setenv("APP_HISTORY_RETENTION", "4")
	t.Setenv("APP_HISTORY_WINDOW", "6")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error for window > retention")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("N8N_WEBHOOK_URL", "https://n8n.example.com/webhook/alexa-chat")
	t.Setenv("N8N_API_KEY", "  key-1  ")
	t.Setenv("N8N_WEBHOOK_TIMEOUT", "15s")
	t.Setenv("APP_LOG_PRETTY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WebhookAPIKey != "key-1" {
		t.Fatalf("WebhookAPIKey = %q, want trimmed key", cfg.WebhookAPIKey)
	}
	if cfg.WebhookTimeout != 15*time.Second {
		t.Fatalf("WebhookTimeout = %v, want 15s", cfg.WebhookTimeout)
	}
	if !cfg.LogPretty {
		t.Fatalf("LogPretty = false, want true")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_LOG_LEVEL",
		"APP_LOG_PRETTY",
		"APP_HISTORY_RETENTION",
		"APP_HISTORY_WINDOW",
		"N8N_WEBHOOK_URL",
		"N8N_API_KEY",
		"N8N_WEBHOOK_TIMEOUT",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
