package clocks

import (
	"sync/atomic"
	"time"
)

// SystemClock reports wall-clock time. It may jump and may be virtual.
type SystemClock interface {
	Resolution() time.Duration
	Now() time.Time
}

// MonotonicClock reports elapsed time since an arbitrary origin fixed when
// the clock was created. Readings never decrease.
type MonotonicClock interface {
	Resolution() time.Duration
	Now() time.Duration
}

// Waiter is implemented by monotonic clocks that deliver their own timer
// events. The scheduler uses it so virtual time drives poll deadlines.
type Waiter interface {
	// After returns a channel that receives once d has elapsed on this
	// clock. d <= 0 fires immediately.
	After(d time.Duration) <-chan struct{}
}

// After waits on c's own timers when it has them and on the runtime timer
// otherwise. stop releases the runtime timer and must be called.
func After(c MonotonicClock, d time.Duration) (ch <-chan struct{}, stop func()) {
	if w, ok := c.(Waiter); ok {
		return w.After(d), func() {}
	}
	out := make(chan struct{})
	if d <= 0 {
		close(out)
		return out, func() {}
	}
	t := time.AfterFunc(d, func() { close(out) })
	return out, func() { t.Stop() }
}

// Clocks is the pair of clocks an execution context exposes.
type Clocks struct {
	System    SystemClock
	Monotonic MonotonicClock
}

// Real returns host clocks with default resolutions.
func Real() Clocks {
	return Clocks{
		System:    NewSystem(time.Microsecond),
		Monotonic: NewMonotonic(time.Nanosecond),
	}
}

type systemClock struct {
	res time.Duration
}

// NewSystem returns the host wall clock truncated to resolution.
func NewSystem(resolution time.Duration) SystemClock {
	if resolution <= 0 {
		resolution = time.Nanosecond
	}
	return systemClock{res: resolution}
}

func (c systemClock) Resolution() time.Duration { return c.res }

func (c systemClock) Now() time.Time {
	return time.Now().Truncate(c.res)
}

type monotonicClock struct {
	start time.Time
	res   time.Duration
	last  atomic.Int64
}

// NewMonotonic returns a host monotonic clock whose origin is now.
func NewMonotonic(resolution time.Duration) MonotonicClock {
	if resolution <= 0 {
		resolution = time.Nanosecond
	}
	return &monotonicClock{start: time.Now(), res: resolution}
}

func (c *monotonicClock) Resolution() time.Duration { return c.res }

// Now never returns less than a previous reading, even if truncation to
// resolution or the host clock would.
func (c *monotonicClock) Now() time.Duration {
	d := int64(time.Since(c.start).Truncate(c.res))
	for {
		last := c.last.Load()
		if d <= last {
			return time.Duration(last)
		}
		if c.last.CompareAndSwap(last, d) {
			return time.Duration(d)
		}
	}
}
