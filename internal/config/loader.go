package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the tracker service.
type Config struct {
	HTTPPort     int
	SQLiteDSN    string
	SessionTTL   time.Duration
	LogFile      string
	LogLevel     string
	LogMaxSizeMB int
}

var logLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Load parses configuration values from the current process environment.
//
// Every variable is optional; the loader applies defaults and reports a
// single error listing every value that failed to parse.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:     8080,
		SQLiteDSN:    "file:tracker.db?_foreign_keys=on",
		SessionTTL:   24 * time.Hour,
		LogLevel:     "info",
		LogMaxSizeMB: 50,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("TRACKER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "TRACKER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("TRACKER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("TRACKER_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "TRACKER_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if file := strings.TrimSpace(os.Getenv("TRACKER_LOG_FILE")); file != "" {
		cfg.LogFile = file
	}

	if level := strings.TrimSpace(strings.ToLower(os.Getenv("TRACKER_LOG_LEVEL"))); level != "" {
		if !logLevels[level] {
			invalid = append(invalid, "TRACKER_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if sizeValue := strings.TrimSpace(os.Getenv("TRACKER_LOG_MAX_SIZE_MB")); sizeValue != "" {
		size, err := strconv.Atoi(sizeValue)
		if err != nil || size <= 0 {
			invalid = append(invalid, "TRACKER_LOG_MAX_SIZE_MB")
		} else {
			cfg.LogMaxSizeMB = size
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("variables de entorno con valores no válidos: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
