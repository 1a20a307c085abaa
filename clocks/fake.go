package clocks

import (
	"sort"
	"sync"
	"time"
)

// Fake is a virtual clock pair for tests. Time stands still until Advance
// is called; pending After waiters fire as the clock passes their deadline.
//
// Fake is safe for concurrent use.
type Fake struct {
	origin  time.Time
	waiters []*fakeWaiter
	elapsed time.Duration
	res     time.Duration
	mu      sync.Mutex
}

type fakeWaiter struct {
	ch       chan struct{}
	deadline time.Duration
}

// NewFake returns a Fake whose wall clock reads origin and whose monotonic
// clock reads zero.
func NewFake(origin time.Time) *Fake {
	return &Fake{origin: origin, res: time.Nanosecond}
}

// SetResolution changes the resolution both views report.
func (f *Fake) SetResolution(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.res = d
}

// Advance moves both clocks forward by d and fires due waiters in
// deadline order.
func (f *Fake) Advance(d time.Duration) {
	if d < 0 {
		panic("clocks: negative advance")
	}
	f.mu.Lock()
	f.elapsed += d
	now := f.elapsed
	var due []*fakeWaiter
	kept := f.waiters[:0]
	for _, w := range f.waiters {
		if w.deadline <= now {
			due = append(due, w)
		} else {
			kept = append(kept, w)
		}
	}
	f.waiters = kept
	f.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].deadline < due[j].deadline })
	for _, w := range due {
		close(w.ch)
	}
}

// Pending returns the number of unfired waiters; tests use it to wait until
// a poll has registered its deadline.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}

// System returns the wall clock view.
func (f *Fake) System() SystemClock { return fakeSystem{f} }

// Monotonic returns the monotonic view. It implements Waiter.
func (f *Fake) Monotonic() MonotonicClock { return fakeMonotonic{f} }

// Clocks returns both views.
func (f *Fake) Clocks() Clocks {
	return Clocks{System: f.System(), Monotonic: f.Monotonic()}
}

func (f *Fake) resolution() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.res
}

func (f *Fake) now() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.elapsed
}

func (f *Fake) after(d time.Duration) <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	if d <= 0 {
		close(ch)
		return ch
	}
	f.waiters = append(f.waiters, &fakeWaiter{ch: ch, deadline: f.elapsed + d})
	return ch
}

type fakeSystem struct{ f *Fake }

func (s fakeSystem) Resolution() time.Duration { return s.f.resolution() }
func (s fakeSystem) Now() time.Time { return s.f.origin.Add(s.f.now()) }

type fakeMonotonic struct{ f *Fake }

func (m fakeMonotonic) Resolution() time.Duration { return m.f.resolution() }
func (m fakeMonotonic) Now() time.Duration { return m.f.now() }
func (m fakeMonotonic) After(d time.Duration) <-chan struct{} { return m.f.after(d) }
