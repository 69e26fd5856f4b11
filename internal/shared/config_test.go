package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.BaseURL != "http://localhost:8000" {
			t.Errorf("expected base URL http://localhost:8000, got %s", config.API.BaseURL)
		}

		if config.Session.RenewalThreshold != 12*time.Minute {
			t.Errorf("expected renewal threshold 12m, got %v", config.Session.RenewalThreshold)
		}

		if config.Polling.Interval != 5*time.Second {
			t.Errorf("expected poll interval 5s, got %v", config.Polling.Interval)
		}

		if config.Polling.CacheTTL != 30*time.Second {
			t.Errorf("expected cache ttl 30s, got %v", config.Polling.CacheTTL)
		}

		if len(config.Session.PublicRoutes) != 3 {
			t.Errorf("expected 3 public routes, got %v", config.Session.PublicRoutes)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
base_url = "https://learn.example.com"

[session]
renewal_threshold = "5m"

[cache]
backend = "redis"
redis_url = "redis://cache:6379/1"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://learn.example.com" {
			t.Errorf("expected overridden base URL, got %s", config.API.BaseURL)
		}
		if config.Session.RenewalThreshold != 5*time.Minute {
			t.Errorf("expected threshold 5m, got %v", config.Session.RenewalThreshold)
		}
		if config.Session.RenewalTimeout != 15*time.Second {
			t.Errorf("expected default renewal timeout to survive partial config, got %v", config.Session.RenewalTimeout)
		}
		if config.Cache.Backend != CacheRedis {
			t.Errorf("expected redis backend, got %s", config.Cache.Backend)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "absent.toml")
		if _, err := LoadConfig(path); !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "empty base url", mutate: func(c *Config) { c.API.BaseURL = "" }},
			{name: "zero threshold", mutate: func(c *Config) { c.Session.RenewalThreshold = 0 }},
			{name: "negative ttl", mutate: func(c *Config) { c.Polling.CacheTTL = -time.Second }},
			{name: "unknown backend", mutate: func(c *Config) { c.Cache.Backend = "memcached" }},
			{name: "redis without url", mutate: func(c *Config) {
				c.Cache.Backend = CacheRedis
				c.Cache.RedisURL = ""
			}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("CallbackURL", func(t *testing.T) {
		o := OAuthConfig{CallbackHost: "127.0.0.1", CallbackPort: 5173}
		if got := o.CallbackURL(); got != "http://127.0.0.1:5173/auth/callback" {
			t.Errorf("unexpected callback URL %s", got)
		}
	})
}
