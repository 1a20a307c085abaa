package wasi

import (
	"context"
	"time"

	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/random"
)

// ClockID selects a clock. Values match both snapshots.
type ClockID uint32

const (
	ClockRealtime ClockID = iota
	ClockMonotonic
	ClockProcessCPUTime
	ClockThreadCPUTime
)

func (id ClockID) String() string {
	switch id {
	case ClockRealtime:
		return "realtime"
	case ClockMonotonic:
		return "monotonic"
	case ClockProcessCPUTime:
		return "process_cputime"
	case ClockThreadCPUTime:
		return "thread_cputime"
	default:
		return "unknown"
	}
}

func unknownClock(op string, id ClockID) error {
	return errors.New(errors.PhaseDispatch, errors.KindInvalidArgument).
		Op(op).Detail("clock %s is not available", id).Build()
}

// ClockResGet returns the resolution of a clock in nanoseconds.
func (c *Ctx) ClockResGet(id ClockID) (uint64, error) {
	var res time.Duration
	switch id {
	case ClockRealtime:
		res = c.clocks.System.Resolution()
	case ClockMonotonic:
		res = c.clocks.Monotonic.Resolution()
	default:
		return 0, unknownClock("clock_res_get", id)
	}
	if res <= 0 {
		res = 1
	}
	return uint64(res), nil
}

// ClockTimeGet reads a clock in nanoseconds. The precision hint is
// accepted and ignored.
func (c *Ctx) ClockTimeGet(id ClockID, _ uint64) (uint64, error) {
	switch id {
	case ClockRealtime:
		ns := c.clocks.System.Now().UnixNano()
		if ns < 0 {
			return 0, errors.Overflow(errors.PhaseDispatch, ns, "timestamp")
		}
		return uint64(ns), nil
	case ClockMonotonic:
		return uint64(c.clocks.Monotonic.Now()), nil
	default:
		return 0, unknownClock("clock_time_get", id)
	}
}

// RandomGet fills buf from the context random source.
func (c *Ctx) RandomGet(buf []byte) error {
	return errors.WithOp(random.Fill(c.random, buf), "random_get", 0)
}

// SchedYield yields the calling guest.
func (c *Ctx) SchedYield(ctx context.Context) error {
	return c.sched.SchedYield(ctx)
}

// ProcExit records the exit code and returns the exit signal the caller
// must propagate to the embedding.
func (c *Ctx) ProcExit(code uint32) error {
	c.exitCode, c.exited = code, true
	c.logger.Debug("guest requested exit")
	return errors.Exit(code)
}

// ProcRaise is not available in this sandbox.
func (c *Ctx) ProcRaise(uint8) error {
	return errors.NotSupported(errors.PhaseDispatch, "proc_raise")
}
