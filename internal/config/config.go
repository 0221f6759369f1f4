package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Upstream shop API
	APIBaseURL string
	APITimeout time.Duration

	// Local snapshot cache
	SnapshotDBPath string

	// Backend selection: "rest" talks to the upstream API, "memory" runs
	// against the in-process fake (used in development and tests).
	DataBackend string

	// Session
	SessionTTL time.Duration

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		APIBaseURL:     getEnv("API_URL", "http://localhost:5000"),
		APITimeout:     getEnvDuration("API_TIMEOUT", 10*time.Second),
		SnapshotDBPath: getEnv("SNAPSHOT_DB_PATH", "./data/shopledger.db"),
		DataBackend:    getEnv("DATA_BACKEND", "rest"),
		SessionTTL:     getEnvDuration("SESSION_TTL", 12*time.Hour),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "rest", "memory":
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [rest memory]", c.DataBackend))
	}

	if c.DataBackend == "rest" {
		if u, err := url.Parse(c.APIBaseURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid API URL '%s': %v", c.APIBaseURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	}

	// A request that never resolves must not pin the loading state forever,
	// so an unbounded client timeout is a configuration error.
	if c.APITimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid API timeout %v: must be at least 1 second", c.APITimeout))
	} else if c.APITimeout > 2*time.Minute {
		errs = append(errs, fmt.Sprintf("invalid API timeout %v: must be at most 2 minutes", c.APITimeout))
	}

	if c.SnapshotDBPath == "" {
		errs = append(errs, "snapshot database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SnapshotDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create snapshot directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.SessionTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
