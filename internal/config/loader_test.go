package config

import (
	"os"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"TRACKER_HTTP_PORT",
			"TRACKER_SQLITE_DSN",
			"TRACKER_SESSION_TTL",
			"TRACKER_LOG_FILE",
			"TRACKER_LOG_LEVEL",
			"TRACKER_LOG_MAX_SIZE_MB",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:tracker.db?_foreign_keys=on" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.SessionTTL != 24*time.Hour {
			t.Fatalf("expected default session TTL 24h, got %s", cfg.SessionTTL)
		}
		if cfg.LogLevel != "info" {
			t.Fatalf("expected default log level info, got %q", cfg.LogLevel)
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		t.Setenv("TRACKER_HTTP_PORT", "9090")
		t.Setenv("TRACKER_SQLITE_DSN", "file:/tmp/tracker.db")
		t.Setenv("TRACKER_SESSION_TTL", "12h")
		t.Setenv("TRACKER_LOG_FILE", "/var/log/tracker.log")
		t.Setenv("TRACKER_LOG_LEVEL", "DEBUG")
		t.Setenv("TRACKER_LOG_MAX_SIZE_MB", "10")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/tracker.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.SessionTTL != 12*time.Hour {
			t.Fatalf("expected session TTL 12h, got %s", cfg.SessionTTL)
		}
		if cfg.LogFile != "/var/log/tracker.log" {
			t.Fatalf("unexpected log file: %q", cfg.LogFile)
		}
		if cfg.LogLevel != "debug" {
			t.Fatalf("expected lowercased log level, got %q", cfg.LogLevel)
		}
		if cfg.LogMaxSizeMB != 10 {
			t.Fatalf("expected log max size 10, got %d", cfg.LogMaxSizeMB)
		}
	})

	t.Run("reports every invalid value in one error", func(t *testing.T) {
		t.Setenv("TRACKER_HTTP_PORT", "-1")
		t.Setenv("TRACKER_SESSION_TTL", "pronto")
		t.Setenv("TRACKER_LOG_LEVEL", "loud")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for invalid values")
		}
		expected := "variables de entorno con valores no válidos: TRACKER_HTTP_PORT, TRACKER_SESSION_TTL, TRACKER_LOG_LEVEL"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})
}
