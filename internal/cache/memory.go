package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process [Store].
type Memory[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]Entry[V]
	now     func() time.Time
}

// NewMemory creates an empty cache. A nil clock uses [time.Now].
func NewMemory[K comparable, V any](now func() time.Time) *Memory[K, V] {
	if now == nil {
		now = time.Now
	}
	return &Memory[K, V]{entries: make(map[K]Entry[V]), now: now}
}

func (m *Memory[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = Entry[V]{Value: value, ExpiresAt: m.now().Add(ttl)}
	return nil
}

func (m *Memory[K, V]) Get(_ context.Context, key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok || !e.ValidAt(m.now()) {
		var zero V
		return zero, false
	}
	return e.Value, true
}

func (m *Memory[K, V]) IsValid(_ context.Context, key K) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	return ok && e.ValidAt(m.now())
}

// Len counts stored entries, expired ones included.
func (m *Memory[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
