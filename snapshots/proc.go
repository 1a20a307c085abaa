package snapshots

import (
	"context"
	"encoding/binary"

	wasicommon "github.com/wippyai/wasi-common"
	"github.com/wippyai/wasi-common/resource"
	"github.com/wippyai/wasi-common/wasi"
)

func (a *ABI) argsGet(_ context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	return a.fail(WriteStrings(mem, c.Args().Elements(), uint32(p[0]), uint32(p[1])))
}

func (a *ABI) argsSizesGet(_ context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	return a.sizes(mem, c.Args(), uint32(p[0]), uint32(p[1]))
}

func (a *ABI) environGet(_ context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	return a.fail(WriteStrings(mem, c.Environ().Elements(), uint32(p[0]), uint32(p[1])))
}

func (a *ABI) environSizesGet(_ context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	return a.sizes(mem, c.Environ(), uint32(p[0]), uint32(p[1]))
}

func (a *ABI) sizes(mem wasicommon.Memory, s wasi.StringArray, countPtr, sizePtr uint32) (uint32, error) {
	if err := mem.WriteU32(countPtr, s.Len()); err != nil {
		return a.fail(err)
	}
	return a.fail(mem.WriteU32(sizePtr, s.Size()))
}

func (a *ABI) clockResGet(_ context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	res, err := c.ClockResGet(wasi.ClockID(uint32(p[0])))
	if err != nil {
		return a.fail(err)
	}
	return a.fail(mem.WriteU64(uint32(p[1]), res))
}

func (a *ABI) clockTimeGet(_ context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	now, err := c.ClockTimeGet(wasi.ClockID(uint32(p[0])), p[1])
	if err != nil {
		return a.fail(err)
	}
	return a.fail(mem.WriteU64(uint32(p[2]), now))
}

func (a *ABI) randomGet(_ context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	ptr := uint32(p[0])
	buf, err := Read(mem, ptr, uint32(p[1]))
	if err != nil {
		return a.fail(err)
	}
	if err := c.RandomGet(buf); err != nil {
		return a.fail(err)
	}
	return a.fail(mem.Write(ptr, buf))
}

func (a *ABI) schedYield(ctx context.Context, c *wasi.Ctx, _ wasicommon.Memory, _ []uint64) (uint32, error) {
	return a.fail(c.SchedYield(ctx))
}

func (a *ABI) procExit(_ context.Context, c *wasi.Ctx, _ wasicommon.Memory, p []uint64) (uint32, error) {
	return 0, c.ProcExit(uint32(p[0]))
}

func (a *ABI) procRaise(_ context.Context, c *wasi.Ctx, _ wasicommon.Memory, p []uint64) (uint32, error) {
	return a.fail(c.ProcRaise(uint8(p[0])))
}

func (a *ABI) pollOneoff(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	in, out, n, resultNevents := uint32(p[0]), uint32(p[1]), uint32(p[2]), uint32(p[3])

	size, err := Mul(n, a.SubscriptionSize)
	if err != nil {
		return a.fail(err)
	}
	raw, err := Read(mem, in, size)
	if err != nil {
		return a.fail(err)
	}
	// Events may overwrite the subscriptions.
	raw = append([]byte(nil), raw...)

	subs := make([]wasi.Subscription, n)
	for i := range subs {
		subs[i] = a.Subscription(raw[uint32(i)*a.SubscriptionSize:])
	}
	if _, err := Mul(n, EventSize); err != nil {
		return a.fail(err)
	}

	events, err := c.PollOneoff(ctx, subs)
	if err != nil {
		return a.fail(err)
	}

	buf := make([]byte, len(events)*EventSize)
	for i, ev := range events {
		if err := a.putEvent(buf[i*EventSize:], ev); err != nil {
			return 0, err
		}
	}
	if err := mem.Write(out, buf); err != nil {
		return a.fail(err)
	}
	return a.fail(mem.WriteU32(resultNevents, uint32(len(events))))
}

func (a *ABI) sockRecv(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	iovs, err := ReadIovecs(mem, uint32(p[1]), uint32(p[2]))
	if err != nil {
		return a.fail(err)
	}
	n, flags, err := c.SockRecv(ctx, handle(p[0]), Buffers(iovs), uint16(p[3]))
	if err != nil {
		return a.fail(err)
	}
	if err := StoreIovecs(mem, iovs, n); err != nil {
		return a.fail(err)
	}
	if err := mem.WriteU32(uint32(p[4]), uint32(n)); err != nil {
		return a.fail(err)
	}
	return a.fail(mem.WriteU16(uint32(p[5]), flags))
}

func (a *ABI) sockSend(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	iovs, err := ReadIovecs(mem, uint32(p[1]), uint32(p[2]))
	if err != nil {
		return a.fail(err)
	}
	n, err := c.SockSend(ctx, handle(p[0]), Buffers(iovs), uint16(p[3]))
	if err != nil {
		return a.fail(err)
	}
	return a.fail(mem.WriteU32(uint32(p[4]), uint32(n)))
}

func (a *ABI) sockShutdown(ctx context.Context, c *wasi.Ctx, _ wasicommon.Memory, p []uint64) (uint32, error) {
	return a.fail(c.SockShutdown(ctx, handle(p[0]), uint8(p[1])))
}

func (a *ABI) sockAccept(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	flags, err := FdFlags("sock_accept", uint16(p[1]))
	if err != nil {
		return a.fail(err)
	}
	h, err := c.SockAccept(ctx, handle(p[0]), flags)
	if err != nil {
		return a.fail(err)
	}
	return a.fail(mem.WriteU32(uint32(p[2]), uint32(h)))
}

// FdSubscription decodes the fd_read/fd_write payload, which both
// snapshots lay out identically at offset 16.
func FdSubscription(b []byte) resource.Handle {
	return resource.Handle(binary.LittleEndian.Uint32(b[16:]))
}
