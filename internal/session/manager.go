package session

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pathwise/internal/shared"
)

// Options configures a [Manager]. Zero values fall back to the package defaults.
type Options struct {
	// Threshold is the session age after which [Manager.MaybeRenew] renews.
	Threshold time.Duration
	// Timeout bounds a single renewal call.
	Timeout time.Duration
	// PublicRoutes suppress termination when [Options.Route] returns one of them.
	PublicRoutes []string
	// Route reports where the user currently is. Nil means "not public".
	Route func() string
	// OnTerminated is called once per failed renewal cycle with [LoginRedirect].
	OnTerminated func(redirect string)
	Logger       *log.Logger
	Now          func() time.Time
}

// Manager is the single-flight renewal coordinator.
type Manager struct {
	renewer Renewer
	store   Store
	opts    Options
	logger  *log.Logger

	mu              sync.Mutex
	refreshing      bool
	reactive        bool
	waiters         []chan error
	generation      uint64
	lastErr         error
	lastReactive    bool
	lastRefreshedAt time.Time

	wg sync.WaitGroup
}

// NewManager creates a [Manager], seeding the renewal timestamp from store.
func NewManager(renewer Renewer, store Store, opts Options) *Manager {
	if store == nil {
		store = NewMemoryStore(State{})
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PublicRoutes == nil {
		opts.PublicRoutes = DefaultPublicRoutes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
		logger.SetLevel(log.FatalLevel)
	}

	m := &Manager{renewer: renewer, store: store, opts: opts, logger: logger.WithPrefix("session")}

	state, err := store.Load()
	if err != nil {
		m.logger.Warn("could not load session state", "error", err)
	}
	m.lastRefreshedAt = state.LastRefreshedAt
	return m
}

// Generation identifies the current renewal cycle. Read it before sending a
// request and hand it to [Manager.Renew] if that request is rejected.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// Refreshing reports whether a renewal is in flight.
func (m *Manager) Refreshing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshing
}

// LastRefreshedAt returns the last known renewal time; zero if unknown.
func (m *Manager) LastRefreshedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRefreshedAt
}

// Waiting returns how many callers are blocked on the in-flight renewal.
func (m *Manager) Waiting() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}

// Start records a fresh login.
func (m *Manager) Start() error {
	now := m.opts.Now()

	m.mu.Lock()
	m.lastRefreshedAt = now
	m.mu.Unlock()

	return m.store.Save(State{LastRefreshedAt: now})
}

// Reset forgets the session, as on logout.
func (m *Manager) Reset() error {
	m.mu.Lock()
	m.lastRefreshedAt = time.Time{}
	m.mu.Unlock()

	return m.store.Clear()
}

// Refresh renews the session now, joining an in-flight renewal if there is one.
func (m *Manager) Refresh(ctx context.Context) error {
	return m.Renew(ctx, m.Generation())
}

// Renew is called after a request sent during generation gen was rejected.
//
// If a cycle has settled since gen, its outcome is returned without renewing
// again. If a renewal is in flight, the caller waits for it in FIFO order.
// Otherwise the caller issues the renewal itself.
func (m *Manager) Renew(ctx context.Context, gen uint64) error {
	m.mu.Lock()
	if gen != m.generation && (m.lastErr == nil || m.lastReactive) {
		err := m.lastErr
		m.mu.Unlock()
		m.logger.Debug("renewal already settled", "generation", gen, "error", err)
		return err
	}

	if m.refreshing {
		done := make(chan error, 1)
		m.waiters = append(m.waiters, done)
		m.mu.Unlock()

		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			m.abandon(done)
			return ctx.Err()
		}
	}

	m.refreshing = true
	m.reactive = true
	m.mu.Unlock()

	return m.run(ctx)
}

// abandon removes a waiter that stopped waiting before settlement.
func (m *Manager) abandon(done chan error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := slices.Index(m.waiters, done); i >= 0 {
		m.waiters = slices.Delete(m.waiters, i, i+1)
	}
}

// MaybeRenew starts a background renewal when the session is stale and none is
// in flight. It reports whether it started one.
func (m *Manager) MaybeRenew() bool {
	now := m.opts.Now()

	m.mu.Lock()
	state := State{LastRefreshedAt: m.lastRefreshedAt}
	if m.refreshing || !state.Stale(now, m.opts.Threshold) {
		m.mu.Unlock()
		return false
	}
	m.refreshing = true
	m.mu.Unlock()

	m.logger.Debug("renewing ahead of expiry", "age", now.Sub(state.LastRefreshedAt))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.run(context.Background()); err != nil {
			m.logger.Debug("background renewal failed", "error", err)
		}
	}()
	return true
}

// Wait blocks until background renewals have finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// run performs one renewal cycle. The caller must have set m.refreshing.
func (m *Manager) run(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.Timeout)
	defer cancel()

	err := m.renewer.Renew(rctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", shared.ErrRenewalFailed, err)
	}
	now := m.opts.Now()

	m.mu.Lock()
	waiters := m.waiters
	// A cycle is reactive if a rejected request started it or is still waiting on it.
	reactive := m.reactive || len(waiters) > 0
	m.waiters = nil
	m.refreshing = false
	m.reactive = false
	m.generation++
	m.lastErr = err
	m.lastReactive = reactive
	if err == nil {
		m.lastRefreshedAt = now
	}
	m.mu.Unlock()

	if err == nil {
		if serr := m.store.Save(State{LastRefreshedAt: now}); serr != nil {
			m.logger.Warn("could not persist session state", "error", serr)
		}
		m.logger.Debug("session renewed", "waiters", len(waiters))
	} else {
		m.logger.Debug("session renewal failed", "waiters", len(waiters), "error", err)
	}

	for _, w := range waiters {
		w <- err
	}

	if err != nil && reactive {
		m.terminate()
	}
	return err
}

func (m *Manager) terminate() {
	route := ""
	if m.opts.Route != nil {
		route = m.opts.Route()
	}
	if route != "" && IsPublicRoute(route, m.opts.PublicRoutes) {
		m.logger.Debug("session expired on public route", "route", route)
		return
	}

	m.mu.Lock()
	m.lastRefreshedAt = time.Time{}
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		m.logger.Warn("could not clear session state", "error", err)
	}
	m.logger.Info("session terminated", "redirect", LoginRedirect)

	if m.opts.OnTerminated != nil {
		m.opts.OnTerminated(LoginRedirect)
	}
}
