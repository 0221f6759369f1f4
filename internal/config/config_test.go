package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:           "8080",
		APIBaseURL:     "http://localhost:5000",
		APITimeout:     10 * time.Second,
		SnapshotDBPath: "./test.db",
		DataBackend:    "rest",
		SessionTTL:     time.Hour,
		LogLevel:       "info",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:   "valid rest backend",
			mutate: func(c *Config) {},
		},
		{
			name:   "valid memory backend",
			mutate: func(c *Config) { c.DataBackend = "memory" },
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid data backend",
			mutate:      func(c *Config) { c.DataBackend = "sheets" },
			wantErr:     true,
			errorString: "invalid data backend 'sheets': must be one of [rest memory]",
		},
		{
			name:        "invalid API URL scheme",
			mutate:      func(c *Config) { c.APIBaseURL = "ftp://localhost:5000" },
			wantErr:     true,
			errorString: "invalid API URL scheme 'ftp': must be 'http' or 'https'",
		},
		{
			name:        "timeout too small",
			mutate:      func(c *Config) { c.APITimeout = 100 * time.Millisecond },
			wantErr:     true,
			errorString: "must be at least 1 second",
		},
		{
			name:        "timeout too large",
			mutate:      func(c *Config) { c.APITimeout = time.Hour },
			wantErr:     true,
			errorString: "must be at most 2 minutes",
		},
		{
			name:        "empty snapshot path",
			mutate:      func(c *Config) { c.SnapshotDBPath = "" },
			wantErr:     true,
			errorString: "snapshot database path cannot be empty",
		},
		{
			name:        "session TTL too small",
			mutate:      func(c *Config) { c.SessionTTL = time.Second },
			wantErr:     true,
			errorString: "invalid session TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error, got nil")
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Fatalf("error %q does not contain %q", err.Error(), tt.errorString)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "API_URL", "API_TIMEOUT", "SNAPSHOT_DB_PATH", "DATA_BACKEND", "SESSION_TTL", "LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("default port = %s, want 8080", cfg.Port)
	}
	if cfg.APIBaseURL != "http://localhost:5000" {
		t.Errorf("default API URL = %s, want http://localhost:5000", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Errorf("default API timeout = %v, want 10s", cfg.APITimeout)
	}
	if cfg.DataBackend != "rest" {
		t.Errorf("default backend = %s, want rest", cfg.DataBackend)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("API_URL", "https://shop.example.com")
	t.Setenv("API_TIMEOUT", "30s")

	cfg := Load()
	if cfg.Port != "9999" {
		t.Errorf("port = %s, want 9999", cfg.Port)
	}
	if cfg.APIBaseURL != "https://shop.example.com" {
		t.Errorf("API URL = %s, want https://shop.example.com", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 30*time.Second {
		t.Errorf("API timeout = %v, want 30s", cfg.APITimeout)
	}
}
