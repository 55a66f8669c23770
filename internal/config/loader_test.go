package config

import (
	"errors"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WEBHOOK_PRIMARY_URL", "https://chat.example/hooks/primary")
	t.Setenv("INGEST_TOKEN", "0123456789abcdef0123")
	t.Setenv("FEED_CONFIG_FILE", "/etc/chatrelay/feed.yaml")
}

func TestLoadConfig_DefaultsApplied(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Environment != "local" {
		t.Errorf("environment = %q, want local", cfg.Environment)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 60*time.Second {
		t.Errorf("request timeout = %s, want 60s", cfg.Server.RequestTimeout)
	}
	if cfg.Delivery.MaxAttempts != 5 {
		t.Errorf("max attempts = %d, want 5", cfg.Delivery.MaxAttempts)
	}
	if cfg.Delivery.MaxRetryWait != 30*time.Second {
		t.Errorf("max retry wait = %s, want 30s", cfg.Delivery.MaxRetryWait)
	}
	if cfg.Delivery.UserAgent != "Chatrelay-Webhook/1.0" {
		t.Errorf("user agent = %q", cfg.Delivery.UserAgent)
	}
}

func TestLoadConfig_MissingPrimaryURLFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WEBHOOK_PRIMARY_URL", "")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected validation failure without primary endpoint")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error type = %T, want *ConfigError", err)
	}
	if cfgErr.Type != ErrValidation {
		t.Errorf("error type = %s, want %s", cfgErr.Type, ErrValidation)
	}
}

func TestLoadConfig_ShortIngestTokenFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("INGEST_TOKEN", "short")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected validation failure for short ingest token")
	}
}

func TestLoadConfig_MalformedDurationFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WEBHOOK_TIMEOUT", "not-a-duration")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected parsing failure for malformed duration")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error type = %T, want *ConfigError", err)
	}
	if cfgErr.Type != ErrParsing {
		t.Errorf("error type = %s, want %s", cfgErr.Type, ErrParsing)
	}
}

func TestLoadConfig_RetryCapBounds(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DELIVERY_MAX_ATTEMPTS", "1000")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected validation failure for out-of-range retry cap")
	}
}

func TestConfigError_Formatting(t *testing.T) {
	inner := errors.New("boom")
	err := &ConfigError{Type: ErrFeedFile, Message: "read feed config", Err: inner}

	if got := err.Error(); got != "[FEED_FILE_FAILED] read feed config: boom" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, inner) {
		t.Error("Unwrap must expose the underlying error")
	}
}
