package session

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// LoginRedirect is where a terminated session sends the user.
const LoginRedirect = "/login?session_expired=true"

const (
	DefaultThreshold = 12 * time.Minute
	DefaultTimeout   = 30 * time.Second
)

// DefaultPublicRoutes are routes that never trigger the termination redirect.
var DefaultPublicRoutes = []string{"/", "/login", "/register"}

// State is what the client persists about its session.
type State struct {
	LastRefreshedAt time.Time
}

// Stale reports whether the session is older than threshold at now.
// An unknown timestamp is never stale.
func (s State) Stale(now time.Time, threshold time.Duration) bool {
	if s.LastRefreshedAt.IsZero() {
		return false
	}
	return now.Sub(s.LastRefreshedAt) > threshold
}

// Store persists [State] between runs.
type Store interface {
	Load() (State, error)
	Save(State) error
	Clear() error
}

// Renewer performs the actual session renewal call.
type Renewer interface {
	Renew(ctx context.Context) error
}

// RenewerFunc adapts a function to [Renewer].
type RenewerFunc func(ctx context.Context) error

// Renew implements [Renewer].
func (f RenewerFunc) Renew(ctx context.Context) error { return f(ctx) }

// MemoryStore keeps [State] in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	state State
}

func NewMemoryStore(s State) *MemoryStore {
	return &MemoryStore{state: s}
}

func (m *MemoryStore) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

func (m *MemoryStore) Save(s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State{}
	return nil
}

// IsPublicRoute reports whether route is one of routes, ignoring any query string.
func IsPublicRoute(route string, routes []string) bool {
	route, _, _ = strings.Cut(route, "?")
	return slices.Contains(routes, route)
}
