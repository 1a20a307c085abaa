package sched

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wippyai/wasi-common/clocks"
	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/file"
)

type readyFile struct {
	file.Unimplemented
	readable atomic.Bool
	pending  uint64
}

func (f *readyFile) Readable(context.Context) (bool, error) { return f.readable.Load(), nil }

func (f *readyFile) Writable(context.Context) (bool, error) { return false, nil }

func (f *readyFile) NumReady(context.Context) (uint64, error) { return f.pending, nil }

func TestPollOneoff_Empty(t *testing.T) {
	s := NewSync(clocks.NewMonotonic(time.Nanosecond))
	p := NewPoll()
	err := s.PollOneoff(context.Background(), p)
	if !stderrors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("Expected invalid argument, got %v", err)
	}
	if len(p.Results()) != 0 {
		t.Fatal("empty poll produced events")
	}
}

func TestPollOneoff_PastDeadline(t *testing.T) {
	fk := clocks.NewFake(time.Unix(0, 0))
	fk.Advance(time.Minute)
	mono := fk.Monotonic()
	s := NewSync(mono)

	p := NewPoll()
	p.SubscribeMonotonicClock(mono, 10*time.Second, 7)

	done := make(chan error, 1)
	go func() { done <- s.PollOneoff(context.Background(), p) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("PollOneoff failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("poll with a past deadline blocked")
	}

	res := p.Results()
	if len(res) != 1 || res[0].Userdata != 7 || res[0].Type != EventClock || res[0].Err != nil {
		t.Fatalf("unexpected results: %+v", res)
	}
}

func TestPollOneoff_WaitsForVirtualClock(t *testing.T) {
	fk := clocks.NewFake(time.Unix(0, 0))
	mono := fk.Monotonic()
	s := NewSync(mono)

	p := NewPoll()
	p.SubscribeMonotonicClock(mono, time.Second, 1)

	done := make(chan error, 1)
	go func() { done <- s.PollOneoff(context.Background(), p) }()

	deadline := time.Now().Add(5 * time.Second)
	for fk.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("poll never registered its deadline")
		}
		time.Sleep(time.Millisecond)
	}
	select {
	case <-done:
		t.Fatal("poll returned before the clock advanced")
	default:
	}

	fk.Advance(time.Second)
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("poll did not wake on clock advance")
	}
}

func TestPollOneoff_LevelTriggeredTies(t *testing.T) {
	mono := clocks.NewMonotonic(time.Nanosecond)
	s := NewSync(mono)

	a := &readyFile{pending: 3}
	a.readable.Store(true)
	b := &readyFile{}
	b.readable.Store(true)
	notReady := &readyFile{}

	p := NewPoll()
	p.SubscribeRead(a, 1)
	p.SubscribeRead(notReady, 2)
	p.SubscribeRead(b, 3)
	p.SubscribeMonotonicClock(mono, 0, 4)

	if err := s.PollOneoff(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	res := p.Results()
	if len(res) != 3 {
		t.Fatalf("expected 3 ready events, got %+v", res)
	}
	if res[0].Userdata != 1 || res[0].NBytes != 3 {
		t.Fatalf("first event = %+v", res[0])
	}
	if res[1].Userdata != 3 || res[2].Userdata != 4 {
		t.Fatalf("ties not reported in order: %+v", res)
	}

	// Still ready: a second poll reports again without blocking.
	if err := s.PollOneoff(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if len(p.Results()) != 3 {
		t.Fatal("level-triggered readiness lost between polls")
	}
}

func TestPollOneoff_FailedSubscription(t *testing.T) {
	mono := clocks.NewMonotonic(time.Nanosecond)
	s := NewSync(mono)

	ready := &readyFile{}
	ready.readable.Store(true)

	p := NewPoll()
	p.Fail(EventFdRead, 1, errors.BadHandle("poll_oneoff", 42))
	p.SubscribeRead(ready, 2)

	if err := s.PollOneoff(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	res := p.Results()
	if len(res) != 2 {
		t.Fatalf("expected both subscriptions reported, got %+v", res)
	}
	if !stderrors.Is(res[0].Err, errors.ErrBadHandle) {
		t.Fatalf("failed subscription error = %v", res[0].Err)
	}
	if res[1].Err != nil || res[1].Userdata != 2 {
		t.Fatalf("healthy subscription = %+v", res[1])
	}
}

func TestPollOneoff_FileBecomesReady(t *testing.T) {
	s := NewSync(clocks.NewMonotonic(time.Nanosecond), WithInterval(time.Millisecond))
	f := &readyFile{}

	p := NewPoll()
	p.SubscribeRead(f, 9)

	done := make(chan error, 1)
	go func() { done <- s.PollOneoff(context.Background(), p) }()
	time.Sleep(5 * time.Millisecond)
	f.readable.Store(true)

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("poll did not observe readiness")
	}
	if res := p.Results(); len(res) != 1 || res[0].Userdata != 9 {
		t.Fatalf("unexpected results: %+v", res)
	}
}

func TestPollOneoff_Cancelled(t *testing.T) {
	fk := clocks.NewFake(time.Unix(0, 0))
	mono := fk.Monotonic()
	s := NewSync(mono)

	p := NewPoll()
	p.SubscribeMonotonicClock(mono, time.Hour, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.PollOneoff(ctx, p)
	if !stderrors.Is(err, errors.ErrInterrupted) {
		t.Fatalf("Expected interrupted, got %v", err)
	}
}

func TestSleepAndYield(t *testing.T) {
	s := NewSync(clocks.NewMonotonic(time.Nanosecond))
	start := time.Now()
	if err := s.Sleep(context.Background(), 2*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) < 2*time.Millisecond {
		t.Fatal("Sleep returned early")
	}
	if err := s.SchedYield(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.SchedYield(ctx); !stderrors.Is(err, errors.ErrInterrupted) {
		t.Fatalf("yield on cancelled context = %v", err)
	}
}
