package wasi

import (
	"context"

	"github.com/wippyai/wasi-common/dir"
	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/file"
	"github.com/wippyai/wasi-common/resource"
)

const (
	readRights  = resource.RightFdRead | resource.RightFdReaddir
	writeRights = resource.RightsFileWrite
)

func pathErr(err error, op string, h resource.Handle, path string) error {
	err = backend(err, op, h)
	if e, ok := err.(*errors.Error); ok && e.Path == "" {
		c := *e
		c.Path = path
		return &c
	}
	return err
}

// PathCreateDirectory creates a directory under h.
func (c *Ctx) PathCreateDirectory(ctx context.Context, h resource.Handle, path string) error {
	d, err := c.dir("path_create_directory", h, resource.RightPathCreateDirectory)
	if err != nil {
		return err
	}
	return pathErr(d.CreateDir(ctx, path), "path_create_directory", h, path)
}

// PathFilestatGet returns the attributes of path under h.
func (c *Ctx) PathFilestatGet(ctx context.Context, h resource.Handle, follow bool, path string) (file.Filestat, error) {
	d, err := c.dir("path_filestat_get", h, resource.RightPathFilestatGet)
	if err != nil {
		return file.Filestat{}, err
	}
	st, err := d.StatAt(ctx, follow, path)
	return st, pathErr(err, "path_filestat_get", h, path)
}

// PathFilestatSetTimes updates the timestamps of path under h.
func (c *Ctx) PathFilestatSetTimes(ctx context.Context, h resource.Handle, follow bool, path string, atim, mtim uint64, flags FstFlags) error {
	d, err := c.dir("path_filestat_set_times", h, resource.RightPathFilestatSetTimes)
	if err != nil {
		return err
	}
	a, m, err := timeSpecs(atim, mtim, flags)
	if err != nil {
		return errors.WithOp(err, "path_filestat_set_times", uint32(h))
	}
	return pathErr(d.SetTimesAt(ctx, follow, path, a, m), "path_filestat_set_times", h, path)
}

// PathLink creates a hard link newPath under newH to oldPath under oldH.
// Following a final symlink of oldPath is not supported.
func (c *Ctx) PathLink(ctx context.Context, oldH resource.Handle, follow bool, oldPath string, newH resource.Handle, newPath string) error {
	src, err := c.dir("path_link", oldH, resource.RightPathLinkSource)
	if err != nil {
		return err
	}
	dst, err := c.dir("path_link", newH, resource.RightPathLinkTarget)
	if err != nil {
		return err
	}
	if follow {
		return errors.New(errors.PhaseDispatch, errors.KindInvalidArgument).
			Op("path_link").Handle(uint32(oldH)).Path(oldPath).Detail("symlink following is not supported").Build()
	}
	return pathErr(src.HardLink(ctx, oldPath, dst, newPath), "path_link", oldH, oldPath)
}

// PathOpen opens path under h and inserts the result. The child's
// rights are the requested rights limited by h's inheriting rights and by
// what the opened kind of object can carry.
func (c *Ctx) PathOpen(ctx context.Context, h resource.Handle, follow bool, path string,
	oflags dir.OpenFlags, base, inheriting uint64, fdflags file.FdFlags) (resource.Handle, error) {
	need := resource.RightPathOpen
	if oflags.Create {
		need |= resource.RightPathCreateFile
	}
	if oflags.Truncate {
		need |= resource.RightPathFilestatSetSize
	}
	d, e, err := capability[dir.Dir](c, "path_open", h, need)
	if err != nil {
		return 0, err
	}

	rights := e.Rights.Derive(base, inheriting)
	read := rights.Base&readRights != 0
	write := rights.Base&writeRights != 0 || fdflags.Has(file.FlagAppend)
	if oflags.Directory {
		// Directories are never opened for writing.
		write = false
	}

	res, err := d.OpenFile(ctx, follow, path, oflags, read, write, fdflags)
	if err != nil {
		return 0, pathErr(err, "path_open", h, path)
	}

	entry := resource.Entry{Rights: rights}
	switch {
	case res.Dir != nil:
		rights.Base &= resource.RightsDir
		entry.Value = res.Dir
	case res.File != nil:
		rights.Base &= resource.RightsFile
		rights.Inheriting = 0
		entry.Value = file.WithCursor(res.File)
	default:
		return 0, errors.New(errors.PhaseBackend, errors.KindIo).
			Op("path_open").Handle(uint32(h)).Path(path).Detail("backend returned nothing").Build()
	}

	child, err := c.table.InsertEntry(entry)
	if err != nil {
		if cl, ok := entry.Value.(resource.Closer); ok {
			_ = cl.Close(ctx)
		}
		return 0, errors.WithOp(err, "path_open", uint32(h))
	}
	return child, nil
}

// PathReadlink returns the target of the symlink at path under h.
func (c *Ctx) PathReadlink(ctx context.Context, h resource.Handle, path string) (string, error) {
	d, err := c.dir("path_readlink", h, resource.RightPathReadlink)
	if err != nil {
		return "", err
	}
	target, err := d.ReadLink(ctx, path)
	return target, pathErr(err, "path_readlink", h, path)
}

// PathRemoveDirectory removes an empty directory.
func (c *Ctx) PathRemoveDirectory(ctx context.Context, h resource.Handle, path string) error {
	d, err := c.dir("path_remove_directory", h, resource.RightPathRemoveDirectory)
	if err != nil {
		return err
	}
	return pathErr(d.RemoveDir(ctx, path), "path_remove_directory", h, path)
}

// PathRename moves oldPath under oldH to newPath under newH.
func (c *Ctx) PathRename(ctx context.Context, oldH resource.Handle, oldPath string, newH resource.Handle, newPath string) error {
	src, err := c.dir("path_rename", oldH, resource.RightPathRenameSource)
	if err != nil {
		return err
	}
	dst, err := c.dir("path_rename", newH, resource.RightPathRenameTarget)
	if err != nil {
		return err
	}
	return pathErr(src.Rename(ctx, oldPath, dst, newPath), "path_rename", oldH, oldPath)
}

// PathSymlink creates a symlink at newPath under h pointing to oldPath.
func (c *Ctx) PathSymlink(ctx context.Context, oldPath string, h resource.Handle, newPath string) error {
	d, err := c.dir("path_symlink", h, resource.RightPathSymlink)
	if err != nil {
		return err
	}
	return pathErr(d.Symlink(ctx, oldPath, newPath), "path_symlink", h, newPath)
}

// PathUnlinkFile removes a non-directory entry.
func (c *Ctx) PathUnlinkFile(ctx context.Context, h resource.Handle, path string) error {
	d, err := c.dir("path_unlink_file", h, resource.RightPathUnlinkFile)
	if err != nil {
		return err
	}
	return pathErr(d.UnlinkFile(ctx, path), "path_unlink_file", h, path)
}
