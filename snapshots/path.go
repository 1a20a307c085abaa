package snapshots

import (
	"context"

	wasicommon "github.com/wippyai/wasi-common"
	"github.com/wippyai/wasi-common/wasi"
)

func (a *ABI) pathCreateDirectory(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	path, err := ReadString(mem, uint32(p[1]), uint32(p[2]))
	if err != nil {
		return a.fail(err)
	}
	return a.fail(c.PathCreateDirectory(ctx, handle(p[0]), path))
}

func (a *ABI) pathFilestatGet(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	path, err := ReadString(mem, uint32(p[2]), uint32(p[3]))
	if err != nil {
		return a.fail(err)
	}
	st, err := c.PathFilestatGet(ctx, handle(p[0]), Follow(uint32(p[1])), path)
	if err != nil {
		return a.fail(err)
	}
	buf := make([]byte, a.FilestatSize)
	a.PutFilestat(buf, st)
	return a.fail(mem.Write(uint32(p[4]), buf))
}

func (a *ABI) pathFilestatSetTimes(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	path, err := ReadString(mem, uint32(p[2]), uint32(p[3]))
	if err != nil {
		return a.fail(err)
	}
	return a.fail(c.PathFilestatSetTimes(ctx, handle(p[0]), Follow(uint32(p[1])), path,
		p[4], p[5], FstFlags(uint16(p[6]))))
}

func (a *ABI) pathLink(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	oldPath, err := ReadString(mem, uint32(p[2]), uint32(p[3]))
	if err != nil {
		return a.fail(err)
	}
	newPath, err := ReadString(mem, uint32(p[5]), uint32(p[6]))
	if err != nil {
		return a.fail(err)
	}
	return a.fail(c.PathLink(ctx, handle(p[0]), Follow(uint32(p[1])), oldPath, handle(p[4]), newPath))
}

func (a *ABI) pathOpen(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	path, err := ReadString(mem, uint32(p[2]), uint32(p[3]))
	if err != nil {
		return a.fail(err)
	}
	oflags, err := OpenFlags(uint16(p[4]))
	if err != nil {
		return a.fail(err)
	}
	fdflags, err := FdFlags("path_open", uint16(p[7]))
	if err != nil {
		return a.fail(err)
	}
	h, err := c.PathOpen(ctx, handle(p[0]), Follow(uint32(p[1])), path, oflags, p[5], p[6], fdflags)
	if err != nil {
		return a.fail(err)
	}
	if err := mem.WriteU32(uint32(p[8]), uint32(h)); err != nil {
		_ = c.FdClose(ctx, h)
		return a.fail(err)
	}
	return 0, nil
}

func (a *ABI) pathReadlink(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	path, err := ReadString(mem, uint32(p[1]), uint32(p[2]))
	if err != nil {
		return a.fail(err)
	}
	buf, size := uint32(p[3]), uint32(p[4])
	if err := Span(buf, size); err != nil {
		return a.fail(err)
	}
	target, err := c.PathReadlink(ctx, handle(p[0]), path)
	if err != nil {
		return a.fail(err)
	}
	if uint32(len(target)) > size {
		target = target[:size]
	}
	if err := mem.Write(buf, []byte(target)); err != nil {
		return a.fail(err)
	}
	return a.fail(mem.WriteU32(uint32(p[5]), uint32(len(target))))
}

func (a *ABI) pathRemoveDirectory(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	path, err := ReadString(mem, uint32(p[1]), uint32(p[2]))
	if err != nil {
		return a.fail(err)
	}
	return a.fail(c.PathRemoveDirectory(ctx, handle(p[0]), path))
}

func (a *ABI) pathRename(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	oldPath, err := ReadString(mem, uint32(p[1]), uint32(p[2]))
	if err != nil {
		return a.fail(err)
	}
	newPath, err := ReadString(mem, uint32(p[4]), uint32(p[5]))
	if err != nil {
		return a.fail(err)
	}
	return a.fail(c.PathRename(ctx, handle(p[0]), oldPath, handle(p[3]), newPath))
}

func (a *ABI) pathSymlink(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	oldPath, err := ReadString(mem, uint32(p[0]), uint32(p[1]))
	if err != nil {
		return a.fail(err)
	}
	newPath, err := ReadString(mem, uint32(p[3]), uint32(p[4]))
	if err != nil {
		return a.fail(err)
	}
	return a.fail(c.PathSymlink(ctx, oldPath, handle(p[2]), newPath))
}

func (a *ABI) pathUnlinkFile(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, p []uint64) (uint32, error) {
	path, err := ReadString(mem, uint32(p[1]), uint32(p[2]))
	if err != nil {
		return a.fail(err)
	}
	return a.fail(c.PathUnlinkFile(ctx, handle(p[0]), path))
}
