package cache

import (
	"context"
	"time"
)

// Store is a TTL cache keyed by resource id.
type Store[K comparable, V any] interface {
	// Set stores value under key until now+ttl.
	Set(ctx context.Context, key K, value V, ttl time.Duration) error
	// Get returns the value only while it is valid.
	Get(ctx context.Context, key K) (V, bool)
	// IsValid reports whether key holds an unexpired entry.
	IsValid(ctx context.Context, key K) bool
}

// Entry is a cached value and the instant it stops being valid.
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// ValidAt reports whether the entry is still valid at now.
func (e Entry[V]) ValidAt(now time.Time) bool {
	return e.ExpiresAt.After(now)
}
