package wasi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasi-common/dir"
	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/file"
	"github.com/wippyai/wasi-common/internal/memfs"
	"github.com/wippyai/wasi-common/resource"
)

func TestPathOperations(t *testing.T) {
	c, fs, _ := newTestCtx(t)
	ctx := context.Background()
	require.NoError(t, fs.WriteFile("src.txt", []byte("payload")))

	require.NoError(t, c.PathCreateDirectory(ctx, 3, "d"))
	requireKind(t, c.PathCreateDirectory(ctx, 3, "d"), errors.KindAlreadyExists)

	require.NoError(t, c.PathRename(ctx, 3, "src.txt", 3, "d/moved.txt"))
	_, err := c.PathFilestatGet(ctx, 3, true, "src.txt")
	requireKind(t, err, errors.KindNotFound)

	st, err := c.PathFilestatGet(ctx, 3, true, "d/moved.txt")
	require.NoError(t, err)
	require.Equal(t, uint64(7), st.Size)

	require.NoError(t, c.PathSymlink(ctx, "d/moved.txt", 3, "link"))
	target, err := c.PathReadlink(ctx, 3, "link")
	require.NoError(t, err)
	require.Equal(t, "d/moved.txt", target)

	st, err = c.PathFilestatGet(ctx, 3, false, "link")
	require.NoError(t, err)
	require.Equal(t, file.TypeSymbolicLink, st.FileType)
	st, err = c.PathFilestatGet(ctx, 3, true, "link")
	require.NoError(t, err)
	require.Equal(t, file.TypeRegularFile, st.FileType)

	require.NoError(t, c.PathLink(ctx, 3, false, "d/moved.txt", 3, "hard.txt"))
	st, err = c.PathFilestatGet(ctx, 3, true, "hard.txt")
	require.NoError(t, err)
	require.Equal(t, uint64(2), st.Nlink)
	requireKind(t, c.PathLink(ctx, 3, true, "link", 3, "other"), errors.KindInvalidArgument)

	require.NoError(t, c.PathFilestatSetTimes(ctx, 3, true, "hard.txt", 5, 6, FstAtim|FstMtim))
	st, err = c.PathFilestatGet(ctx, 3, true, "d/moved.txt")
	require.NoError(t, err)
	require.Equal(t, int64(5), st.Atim.UnixNano())
	require.Equal(t, int64(6), st.Mtim.UnixNano())

	requireKind(t, c.PathRemoveDirectory(ctx, 3, "d"), errors.KindNotEmpty)
	require.NoError(t, c.PathUnlinkFile(ctx, 3, "d/moved.txt"))
	require.NoError(t, c.PathRemoveDirectory(ctx, 3, "d"))
	require.NoError(t, c.PathUnlinkFile(ctx, 3, "link"))

	_, err = c.PathReadlink(ctx, 3, "hard.txt")
	requireKind(t, err, errors.KindInvalidArgument)
}

func TestPathSandbox(t *testing.T) {
	c, _, _ := newTestCtx(t)
	ctx := context.Background()

	for _, p := range []string{"/etc/passwd", "../outside", "./../outside"} {
		_, err := c.PathOpen(ctx, 3, true, p, dir.OpenFlags{}, resource.RightsFile, 0, 0)
		requireKind(t, err, errors.KindPermissionDenied)
	}

	_, err := c.PathOpen(ctx, 3, true, "missing", dir.OpenFlags{}, resource.RightsFile, 0, 0)
	requireKind(t, err, errors.KindNotFound)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, "missing", e.Path)
	require.True(t, e.HasHandle)
}

func TestPathOpenFlags(t *testing.T) {
	c, fs, _ := newTestCtx(t)
	ctx := context.Background()
	require.NoError(t, fs.WriteFile("exists", []byte("old contents")))

	_, err := c.PathOpen(ctx, 3, true, "exists", dir.OpenFlags{Create: true, Exclusive: true}, resource.RightsFile, 0, 0)
	requireKind(t, err, errors.KindAlreadyExists)

	_, err = c.PathOpen(ctx, 3, true, "exists", dir.OpenFlags{Directory: true}, resource.RightsDir, 0, 0)
	requireKind(t, err, errors.KindNotDir)

	h, err := c.PathOpen(ctx, 3, true, "exists", dir.OpenFlags{Truncate: true}, resource.RightsFile, 0, 0)
	require.NoError(t, err)
	st, err := c.FdFilestatGet(ctx, h)
	require.NoError(t, err)
	require.Zero(t, st.Size)

	d, err := c.PathOpen(ctx, 3, true, ".", dir.OpenFlags{Directory: true}, resource.RightsAll, resource.RightsAll, 0)
	require.NoError(t, err)
	require.True(t, resource.Is[dir.Dir](c.Table(), d))
	st2, err := c.FdFdstatGet(ctx, d)
	require.NoError(t, err)
	require.Equal(t, uint64(resource.RightsDir), st2.RightsBase)
}

func TestPathOpen_HandleLimit(t *testing.T) {
	c, _, _ := newTestCtx(t, func(b *Builder) { b.WithMaxHandles(5) })
	ctx := context.Background()

	create(t, c, "one")
	_, err := c.PathOpen(ctx, 3, true, "two", dir.OpenFlags{Create: true}, resource.RightsFile, 0, 0)
	requireKind(t, err, errors.KindTooManyHandles)
}

func TestRenameAcrossBackends(t *testing.T) {
	other := memfs.New()
	c, fs, _ := newTestCtx(t, func(b *Builder) { b.WithPreopenedDir(other.Root(), "/other") })
	ctx := context.Background()
	require.NoError(t, fs.WriteFile("f", nil))

	requireKind(t, c.PathRename(ctx, 3, "f", 4, "f"), errors.KindCrossDevice)
}

func TestReadOnlyMount(t *testing.T) {
	ro := memfs.New()
	require.NoError(t, ro.WriteFile("keep", []byte("x")))
	ro.SetReadOnly(true)
	c, err := New().WithPreopenedDir(ro.Root(), "/ro").Build()
	require.NoError(t, err)
	defer c.Close(context.Background())
	ctx := context.Background()

	requireKind(t, c.PathCreateDirectory(ctx, 3, "x"), errors.KindNotSupported)
	_, err = c.PathOpen(ctx, 3, true, "keep", dir.OpenFlags{}, resource.RightFdRead, 0, 0)
	require.NoError(t, err)
	_, err = c.PathOpen(ctx, 3, true, "keep", dir.OpenFlags{}, resource.RightFdWrite, 0, 0)
	requireKind(t, err, errors.KindNotSupported)
}

func TestReadOnlyPreopen(t *testing.T) {
	ro := memfs.New()
	require.NoError(t, ro.WriteFile("keep", []byte("x")))
	ro.SetReadOnly(true)
	c, err := New().WithReadOnlyPreopenedDir(ro.Root(), "/ro").Build()
	require.NoError(t, err)
	defer c.Close(context.Background())
	ctx := context.Background()

	st, err := c.FdFdstatGet(ctx, 3)
	require.NoError(t, err)
	require.Zero(t, st.RightsInheriting&resource.RightsFileWrite)

	// Write rights are narrowed away, not refused.
	fd, err := c.PathOpen(ctx, 3, true, "keep", dir.OpenFlags{}, resource.RightsAll, resource.RightsAll, 0)
	require.NoError(t, err)
	st, err = c.FdFdstatGet(ctx, fd)
	require.NoError(t, err)
	require.NotZero(t, st.RightsBase&resource.RightFdRead)
	require.Zero(t, st.RightsBase&resource.RightFdWrite)

	_, err = c.FdWrite(ctx, fd, [][]byte{[]byte("y")})
	requireKind(t, err, errors.KindNotCapable)
	buf := make([]byte, 4)
	n, err := c.FdRead(ctx, fd, [][]byte{buf})
	require.NoError(t, err)
	require.Equal(t, "x", string(buf[:n]))

	requireKind(t, c.PathCreateDirectory(ctx, 3, "x"), errors.KindNotSupported)
}
