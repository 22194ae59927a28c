// Package monitor polls the dashboard endpoints on a fixed interval and
// folds each round into a snapshot for the views.
//
// A round fans out to every endpoint of a feed at once. Each endpoint is
// judged on its own: a failing endpoint zeroes its section of the snapshot
// and never blocks the others.
package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/watchdesk/internal/logging"
)

// DefaultInterval is the polling interval when none is configured.
const DefaultInterval = 3 * time.Second

// PollerOptions configures a Poller.
type PollerOptions struct {
	Interval time.Duration
	// SkipOverlapping skips a tick while the previous round is still running.
	// When false, rounds may overlap and may complete out of order.
	SkipOverlapping bool
	Logger          *logging.Logger
}

// PollerStats counts rounds.
type PollerStats struct {
	Started int64
	Skipped int64
}

// Poller runs fetch immediately and then on every tick, handing each result
// to a callback.
type Poller[T any] struct {
	interval        time.Duration
	skipOverlapping bool
	fetch           func(context.Context) T
	logger          *logging.Logger

	running atomic.Int32
	started atomic.Int64
	skipped atomic.Int64
}

// NewPoller creates a Poller around fetch.
func NewPoller[T any](fetch func(context.Context) T, opts PollerOptions) *Poller[T] {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	return &Poller[T]{
		interval:        opts.Interval,
		skipOverlapping: opts.SkipOverlapping,
		fetch:           fetch,
		logger:          opts.Logger.WithComponent("poller"),
	}
}

// Run polls until ctx is canceled, calling onResult after every round. It
// returns once every round it started has finished.
func (p *Poller[T]) Run(ctx context.Context, onResult func(T)) {
	var wg sync.WaitGroup
	defer wg.Wait()

	round := func() {
		if p.skipOverlapping && !p.running.CompareAndSwap(0, 1) {
			p.skipped.Add(1)
			p.logger.Debug("skipping tick, previous round still running")
			return
		}
		if !p.skipOverlapping {
			p.running.Add(1)
		}
		p.started.Add(1)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer p.running.Add(-1)

			result := p.fetch(ctx)
			if ctx.Err() != nil {
				return
			}
			onResult(result)
		}()
	}

	round()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			round()
		}
	}
}

// Once runs a single round synchronously.
func (p *Poller[T]) Once(ctx context.Context) T {
	p.started.Add(1)
	return p.fetch(ctx)
}

// Stats returns the round counters.
func (p *Poller[T]) Stats() PollerStats {
	return PollerStats{Started: p.started.Load(), Skipped: p.skipped.Load()}
}

// InFlight returns the number of rounds currently running.
func (p *Poller[T]) InFlight() int {
	return int(p.running.Load())
}
