package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Cache backends accepted in [CacheConfig.Backend].
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Session  SessionConfig  `toml:"session"`
	Polling  PollingConfig  `toml:"polling"`
	Cache    CacheConfig    `toml:"cache"`
	Database DatabaseConfig `toml:"database"`
	OAuth    OAuthConfig    `toml:"oauth"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig points at the learning-pathway API.
type APIConfig struct {
	BaseURL string        `toml:"base_url"`
	Timeout time.Duration `toml:"timeout"`
}

// SessionConfig tunes session renewal.
type SessionConfig struct {
	RenewalThreshold time.Duration `toml:"renewal_threshold"`
	RenewalTimeout   time.Duration `toml:"renewal_timeout"`
	PublicRoutes     []string      `toml:"public_routes"`
}

// PollingConfig controls status polling and the bulk status sweep.
type PollingConfig struct {
	Interval  time.Duration `toml:"interval"`
	CacheTTL  time.Duration `toml:"cache_ttl"`
	Workers   int           `toml:"workers"`
	RateLimit float64       `toml:"rate_limit"`
}

// CacheConfig selects the status cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	RedisURL  string `toml:"redis_url"`
	KeyPrefix string `toml:"key_prefix"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// OAuthConfig is where the local Google sign-in callback listener binds.
type OAuthConfig struct {
	CallbackHost string `toml:"callback_host"`
	CallbackPort int    `toml:"callback_port"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level   string `toml:"level"`
	TUIFile string `toml:"tui_file"`
}

// CallbackURL is the redirect target registered for Google sign-in.
func (o OAuthConfig) CallbackURL() string {
	return fmt.Sprintf("http://%s:%d/auth/callback", o.CallbackHost, o.CallbackPort)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values. An absent file
// yields [ErrMissingConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate rejects settings the session and polling layers cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.API.BaseURL == "":
		return fmt.Errorf("%w: api.base_url is empty", ErrInvalidConfig)
	case c.Session.RenewalThreshold <= 0:
		return fmt.Errorf("%w: session.renewal_threshold must be positive", ErrInvalidConfig)
	case c.Session.RenewalTimeout <= 0:
		return fmt.Errorf("%w: session.renewal_timeout must be positive", ErrInvalidConfig)
	case c.Polling.Interval <= 0:
		return fmt.Errorf("%w: polling.interval must be positive", ErrInvalidConfig)
	case c.Polling.CacheTTL <= 0:
		return fmt.Errorf("%w: polling.cache_ttl must be positive", ErrInvalidConfig)
	}

	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("%w: cache.redis_url is required for the redis backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
