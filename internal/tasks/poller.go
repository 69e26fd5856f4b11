package tasks

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pathwise/internal/cache"
	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/shared"
	"golang.org/x/time/rate"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultTTL      = 30 * time.Second
)

// StatusFetcher fetches pathway status through the request pipeline.
type StatusFetcher interface {
	PathwayStatus(ctx context.Context, id string) (*models.PathwayStatus, error)
}

// StatusCache is the cache the poller reads through.
type StatusCache = cache.Store[string, models.PathwayStatus]

// PollerOpts configures a [StatusPoller].
type PollerOpts struct {
	Interval time.Duration // How often to check
	TTL      time.Duration // How long a fetched status stays valid
	Logger   *log.Logger
}

// StatusPoller checks pathway status on a fixed cadence but only calls the API
// when the cached status has expired.
type StatusPoller struct {
	fetcher  StatusFetcher
	cache    StatusCache
	interval time.Duration
	ttl      time.Duration
	logger   *log.Logger
}

func NewStatusPoller(fetcher StatusFetcher, c StatusCache, opts PollerOpts) *StatusPoller {
	if c == nil {
		c = cache.NewMemory[string, models.PathwayStatus](nil)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	return &StatusPoller{
		fetcher:  fetcher,
		cache:    c,
		interval: opts.Interval,
		ttl:      opts.TTL,
		logger:   opts.Logger.WithPrefix("poller"),
	}
}

// Interval is the poll cadence.
func (p *StatusPoller) Interval() time.Duration { return p.interval }

// Tick performs one poll check. fetched reports whether the API was called.
func (p *StatusPoller) Tick(ctx context.Context, id string) (status *models.PathwayStatus, fetched bool, err error) {
	return p.tick(ctx, id, nil)
}

func (p *StatusPoller) tick(ctx context.Context, id string, limiter *rate.Limiter) (*models.PathwayStatus, bool, error) {
	if p.cache.IsValid(ctx, id) {
		if cached, ok := p.cache.Get(ctx, id); ok {
			p.logger.Debug("status cache hit", "pathway", id)
			return &cached, false, nil
		}
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, false, err
		}
	}

	status, err := p.fetcher.PathwayStatus(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if err := p.cache.Set(ctx, id, *status, p.ttl); err != nil {
		p.logger.Warn("could not cache status", "pathway", id, "error", err)
	}
	p.logger.Debug("status fetched", "pathway", id, "completed", status.CompletedTopicsCount, "total", status.TotalTopics)
	return status, true, nil
}

// Run polls id until ctx ends, starting immediately. Each check is reported on
// updates without blocking. Run stops early with the error if the session can
// no longer be renewed.
func (p *StatusPoller) Run(ctx context.Context, id string, updates chan<- ProgressUpdate) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		status, fetched, err := p.Tick(ctx, id)
		switch {
		case err == nil:
			sendProgress(updates, statusUpdate(id, status, fetched))
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, shared.ErrRenewalFailed):
			sendProgress(updates, pollFailedUpdate(id, err))
			return err
		default:
			p.logger.Debug("poll failed", "pathway", id, "error", err)
			sendProgress(updates, pollFailedUpdate(id, err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
