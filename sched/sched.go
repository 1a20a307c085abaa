package sched

import (
	"context"
	"runtime"
	"time"

	"github.com/wippyai/wasi-common/clocks"
	"github.com/wippyai/wasi-common/errors"
)

// Scheduler implements sched_yield and poll_oneoff for an execution
// context. PollOneoff is the one place a guest call is expected to block.
type Scheduler interface {
	// PollOneoff blocks until at least one subscription is ready and
	// fills p's results with every ready subscription. An empty poll set
	// fails with KindInvalidArgument.
	PollOneoff(ctx context.Context, p *Poll) error
	SchedYield(ctx context.Context) error
	Sleep(ctx context.Context, d time.Duration) error
}

// DefaultInterval is how often Sync re-checks file readiness while
// blocked.
const DefaultInterval = time.Millisecond

// Sync blocks the calling goroutine. Readiness is level-triggered: a poll
// whose subscriptions are already ready returns without waiting.
type Sync struct {
	clock    clocks.MonotonicClock
	interval time.Duration
}

// SyncOption configures Sync.
type SyncOption func(*Sync)

// WithInterval sets the file readiness re-check interval.
func WithInterval(d time.Duration) SyncOption {
	return func(s *Sync) {
		if d > 0 {
			s.interval = d
		}
	}
}

// NewSync returns a blocking scheduler. clock times Sleep.
func NewSync(clock clocks.MonotonicClock, opts ...SyncOption) *Sync {
	s := &Sync{clock: clock, interval: DefaultInterval}
	for _, o := range opts {
		o(s)
	}
	return s
}

// PollOneoff implements Scheduler.
func (s *Sync) PollOneoff(ctx context.Context, p *Poll) error {
	if p.Len() == 0 {
		return errors.InvalidArgument(errors.PhaseDispatch, "empty subscription set")
	}

	for {
		ready, wait := p.check(ctx)
		if ready > 0 {
			return nil
		}

		var clockCh <-chan struct{}
		stop := func() {}
		if wait >= 0 {
			clockCh, stop = clocks.After(p.earliestClock(), wait)
		}

		var tick <-chan time.Time
		var ticker *time.Ticker
		if p.hasFiles() {
			ticker = time.NewTicker(s.interval)
			tick = ticker.C
		}

		select {
		case <-ctx.Done():
			stop()
			if ticker != nil {
				ticker.Stop()
			}
			return errors.Wrap(errors.PhaseDispatch, errors.KindInterrupted, ctx.Err(), "poll_oneoff cancelled")
		case <-clockCh:
		case <-tick:
		}
		stop()
		if ticker != nil {
			ticker.Stop()
		}
	}
}

// SchedYield implements Scheduler.
func (s *Sync) SchedYield(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.PhaseDispatch, errors.KindInterrupted, err, "")
	}
	runtime.Gosched()
	return nil
}

// Sleep implements Scheduler.
func (s *Sync) Sleep(ctx context.Context, d time.Duration) error {
	p := NewPoll()
	p.SubscribeMonotonicClock(s.clock, s.clock.Now()+d, 0)
	return s.PollOneoff(ctx, p)
}
