package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pathwise/internal/shared"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Redis is a [Store] backed by a redis server. Lookup failures are logged and
// reported as misses so the poller falls back to the network.
type Redis[V any] struct {
	client    redis.Cmdable
	keyPrefix string
	logger    *log.Logger
}

// RedisOption configures a [Redis] store.
type RedisOption func(*redisConfig)

type redisConfig struct {
	keyPrefix string
	logger    *log.Logger
}

// WithKeyPrefix namespaces every key as "prefix:key".
func WithKeyPrefix(prefix string) RedisOption {
	return func(c *redisConfig) { c.keyPrefix = prefix }
}

// WithLogger sets the logger used for redis failures.
func WithLogger(l *log.Logger) RedisOption {
	return func(c *redisConfig) { c.logger = l }
}

// NewRedis wraps an existing client.
func NewRedis[V any](client redis.Cmdable, opts ...RedisOption) *Redis[V] {
	cfg := redisConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.New(io.Discard)
	}
	return &Redis[V]{client: client, keyPrefix: cfg.keyPrefix, logger: cfg.logger}
}

// NewRedisFromURL dials the server at url, e.g. "redis://localhost:6379/0".
func NewRedisFromURL[V any](url string, opts ...RedisOption) (*Redis[V], *redis.Client, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: redis url: %w", shared.ErrInvalidConfig, err)
	}
	client := redis.NewClient(options)
	return NewRedis[V](client, opts...), client, nil
}

func (r *Redis[V]) prefixedKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + ":" + key
}

// Set stores value with a PX expiry. A non-positive ttl removes the key, since
// redis would otherwise keep it forever.
func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	fullKey := r.prefixedKey(key)
	if ttl <= 0 {
		return r.client.Del(ctx, fullKey).Err()
	}

	data, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, fullKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", fullKey, err)
	}
	return nil
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool) {
	var value V

	fullKey := r.prefixedKey(key)
	data, err := r.client.Get(ctx, fullKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis get failed", "key", fullKey, "error", err)
		}
		return value, false
	}

	if err := msgpack.Unmarshal(data, &value); err != nil {
		r.logger.Warn("discarding undecodable cache entry", "key", fullKey, "error", err)
		var zero V
		return zero, false
	}
	return value, true
}

func (r *Redis[V]) IsValid(ctx context.Context, key string) bool {
	fullKey := r.prefixedKey(key)
	n, err := r.client.Exists(ctx, fullKey).Result()
	if err != nil {
		r.logger.Warn("redis exists failed", "key", fullKey, "error", err)
		return false
	}
	return n > 0
}
