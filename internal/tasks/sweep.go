package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// SweepOpts bounds a status sweep.
type SweepOpts struct {
	Workers   int     // Concurrent status checks (default: 4, max: 10)
	RateLimit float64 // API requests per second (default: 5); cache hits are free
}

// SweepResult is the outcome for one pathway.
type SweepResult struct {
	PathwayID string
	Name      string
	Status    *models.PathwayStatus
	Cached    bool
	Err       error
}

// Sweep checks every pathway's status through the cache with a bounded worker
// pool. Results keep the order of pathways; one failure does not stop the rest,
// except a session that can no longer be renewed, which cancels the remaining
// checks and is returned.
func (p *StatusPoller) Sweep(ctx context.Context, pathways []models.Pathway, opts SweepOpts, progress chan<- ProgressUpdate) ([]SweepResult, error) {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	results := make([]SweepResult, len(pathways))

	var mu sync.Mutex
	completed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i, pw := range pathways {
		g.Go(func() error {
			status, fetched, err := p.tick(gctx, pw.ID, limiter)
			res := SweepResult{PathwayID: pw.ID, Name: pw.Name, Status: status, Cached: err == nil && !fetched, Err: err}
			if res.Name == "" {
				res.Name = pw.ID
			}
			results[i] = res

			mu.Lock()
			completed++
			step := completed
			mu.Unlock()

			sendProgress(progress, sweepUpdate(step, len(pathways), res))
			if errors.Is(err, shared.ErrRenewalFailed) {
				return err
			}
			return nil
		})
	}

	return results, g.Wait()
}
