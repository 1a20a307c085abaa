package snapshots

import (
	"context"

	wasicommon "github.com/wippyai/wasi-common"
	"github.com/wippyai/wasi-common/dir"
	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/wasi"
)

func (a *ABI) fdAdvise(ctx context.Context, c *wasi.Ctx, _ wasicommon.Memory, p []uint64) (uint32, error) {
	advice, err := Advice(uint32(p[3]))
	if err != nil {
		return a.fail(err)
	}
	return a.fail(c.FdAdvise(ctx, handle(p[0]), p[1], p[2], advice))
}

func (a *ABI) fdAllocate(ctx context.Context, c *wasi.Ctx, _ wasicommon.Memory, p []uint64) (uint32, error) {
	return a.fail(c.FdAllocate(ctx, handle(p[0]), p[1], p[2]))
}

func (a *ABI) fdClose(ctx context.Context, c *wasi.Ctx, _ wasicommon.Memory, p []uint64) (uint32, error) {
	return a.fail(c.FdClose(ctx, handle(p[0])))
}

func (a *ABI) fdDatasync(ctx context.Context, c *wasi.Ctx, _ wasicommon.Memory, p []uint64) (uint32, error) {
	return a.fail(c.FdDatasync(ctx, handle(p[0])))
}

func (a *ABI) fdSync(ctx context.Context, c *wasi.Ctx, _ wasicommon.Memory, p []uint64) (uint32, error) {
	return a.fail(c.FdSync(ctx, handle(p[0])))
}

func (a *ABI) fdFdstatGet(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	st, err := c.FdFdstatGet(ctx, handle(p[0]))
	if err != nil {
		return a.fail(err)
	}
	buf := make([]byte, FdstatSize)
	putFdstat(buf, st)
	return a.fail(mem.Write(uint32(p[1]), buf))
}

func (a *ABI) fdFdstatSetFlags(ctx context.Context, c *wasi.Ctx, _ wasicommon.Memory, p []uint64) (uint32, error) {
	flags, err := FdFlags("fd_fdstat_set_flags", uint16(p[1]))
	if err != nil {
		return a.fail(err)
	}
	return a.fail(c.FdFdstatSetFlags(ctx, handle(p[0]), flags))
}

func (a *ABI) fdFdstatSetRights(_ context.Context, c *wasi.Ctx, _ wasicommon.Memory, p []uint64) (uint32, error) {
	return a.fail(c.FdFdstatSetRights(handle(p[0]), p[1], p[2]))
}

func (a *ABI) fdFilestatGet(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	st, err := c.FdFilestatGet(ctx, handle(p[0]))
	if err != nil {
		return a.fail(err)
	}
	buf := make([]byte, a.FilestatSize)
	a.PutFilestat(buf, st)
	return a.fail(mem.Write(uint32(p[1]), buf))
}

func (a *ABI) fdFilestatSetSize(ctx context.Context, c *wasi.Ctx, _ wasicommon.Memory, p []uint64) (uint32, error) {
	return a.fail(c.FdFilestatSetSize(ctx, handle(p[0]), p[1]))
}

func (a *ABI) fdFilestatSetTimes(ctx context.Context, c *wasi.Ctx, _ wasicommon.Memory, p []uint64) (uint32, error) {
	return a.fail(c.FdFilestatSetTimes(ctx, handle(p[0]), p[1], p[2], FstFlags(uint16(p[3]))))
}

func (a *ABI) fdRead(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	iovs, err := ReadIovecs(mem, uint32(p[1]), uint32(p[2]))
	if err != nil {
		return a.fail(err)
	}
	n, err := c.FdRead(ctx, handle(p[0]), Buffers(iovs))
	if err != nil {
		return a.fail(err)
	}
	return a.storeRead(mem, iovs, n, uint32(p[3]))
}

func (a *ABI) fdPread(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	iovs, err := ReadIovecs(mem, uint32(p[1]), uint32(p[2]))
	if err != nil {
		return a.fail(err)
	}
	n, err := c.FdPread(ctx, handle(p[0]), Buffers(iovs), p[3])
	if err != nil {
		return a.fail(err)
	}
	return a.storeRead(mem, iovs, n, uint32(p[4]))
}

func (a *ABI) storeRead(mem wasicommon.Memory, iovs []Iovec, n uint64, resultPtr uint32) (uint32, error) {
	if err := StoreIovecs(mem, iovs, n); err != nil {
		return a.fail(err)
	}
	return a.fail(mem.WriteU32(resultPtr, uint32(n)))
}

func (a *ABI) fdWrite(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	iovs, err := ReadIovecs(mem, uint32(p[1]), uint32(p[2]))
	if err != nil {
		return a.fail(err)
	}
	n, err := c.FdWrite(ctx, handle(p[0]), Buffers(iovs))
	if err != nil {
		return a.fail(err)
	}
	return a.fail(mem.WriteU32(uint32(p[3]), uint32(n)))
}

func (a *ABI) fdPwrite(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	iovs, err := ReadIovecs(mem, uint32(p[1]), uint32(p[2]))
	if err != nil {
		return a.fail(err)
	}
	n, err := c.FdPwrite(ctx, handle(p[0]), Buffers(iovs), p[3])
	if err != nil {
		return a.fail(err)
	}
	return a.fail(mem.WriteU32(uint32(p[4]), uint32(n)))
}

func (a *ABI) fdSeek(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	whence, ok := a.Whence(uint8(p[2]))
	if !ok {
		return a.fail(errors.New(errors.PhaseDecode, errors.KindInvalidArgument).
			Op("fd_seek").Handle(uint32(p[0])).Detail("unknown whence %d", uint8(p[2])).Build())
	}
	pos, err := c.FdSeek(ctx, handle(p[0]), int64(p[1]), whence)
	if err != nil {
		return a.fail(err)
	}
	return a.fail(mem.WriteU64(uint32(p[3]), pos))
}

func (a *ABI) fdTell(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	pos, err := c.FdTell(ctx, handle(p[0]))
	if err != nil {
		return a.fail(err)
	}
	return a.fail(mem.WriteU64(uint32(p[1]), pos))
}

func (a *ABI) fdPrestatGet(_ context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	name, err := c.FdPrestatGet(handle(p[0]))
	if err != nil {
		return a.fail(err)
	}
	buf := make([]byte, PrestatSize)
	putPrestat(buf, uint32(len(name)))
	return a.fail(mem.Write(uint32(p[1]), buf))
}

// fdPrestatDirName writes the preopen name without a terminator. A buffer
// shorter than the name is ENAMETOOLONG and nothing is written.
func (a *ABI) fdPrestatDirName(_ context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	h, ptr, size := handle(p[0]), uint32(p[1]), uint32(p[2])
	name, err := c.FdPrestatDirName(h)
	if err != nil {
		return a.fail(err)
	}
	if uint32(len(name)) > size {
		return a.fail(errors.New(errors.PhaseEncode, errors.KindNameTooLong).
			Op("fd_prestat_dir_name").Handle(uint32(h)).
			Detail("buffer of %d bytes for a %d byte name", size, len(name)).Build())
	}
	return a.fail(mem.Write(ptr, []byte(name)))
}

// fdReaddir fills the buffer with dirent records. The last record may be
// cut short; a full buffer tells the guest to call again from the last
// cookie it fully decoded.
func (a *ABI) fdReaddir(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	h, ptr, size, cookie, resultBufused := handle(p[0]), uint32(p[1]), uint32(p[2]), dir.Cookie(p[3]), uint32(p[4])
	if err := Span(ptr, size); err != nil {
		return a.fail(err)
	}
	entries, err := c.FdReaddir(ctx, h, cookie)
	if err != nil {
		return a.fail(err)
	}

	out := make([]byte, 0, min(size, 4096))
	for ent, err := range entries {
		if err != nil {
			return a.fail(err)
		}
		if uint32(len(out)) >= size {
			break
		}
		rec := make([]byte, DirentSize+len(ent.Name))
		putDirent(rec, uint64(ent.Next), ent.Inode, uint32(len(ent.Name)), FileType(ent.FileType))
		copy(rec[DirentSize:], ent.Name)
		out = append(out, rec...)
	}
	if uint32(len(out)) > size {
		out = out[:size]
	}
	if err := mem.Write(ptr, out); err != nil {
		return a.fail(err)
	}
	return a.fail(mem.WriteU32(resultBufused, uint32(len(out))))
}

func (a *ABI) fdRenumber(ctx context.Context, c *wasi.Ctx, _ wasicommon.Memory, p []uint64) (uint32, error) {
	return a.fail(c.FdRenumber(ctx, handle(p[0]), handle(p[1])))
}
