package memfs

import (
	"context"
	"iter"
	"sort"
	"strings"

	"github.com/wippyai/wasi-common/dir"
	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/file"
)

// Dir is a directory handle into an FS.
type Dir struct {
	fs *FS
	n  *node
}

var _ dir.Dir = (*Dir)(nil)

func named(op, path string, l lookup) error {
	if l.name == "." || l.name == ".." {
		return pathErr(errors.KindInvalidArgument, op, path, "path names the directory itself")
	}
	return nil
}

func (d *Dir) OpenFile(_ context.Context, follow bool, path string, oflags dir.OpenFlags,
	read, write bool, fdflags file.FdFlags) (dir.OpenResult, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	const op = "open"
	if (write || oflags.Create || oflags.Truncate) && d.fs.readOnly {
		return dir.OpenResult{}, d.fs.writable(op)
	}
	if oflags.Create && oflags.Directory {
		return dir.OpenResult{}, pathErr(errors.KindInvalidArgument, op, path, "create and directory are exclusive")
	}

	l, err := d.fs.resolve(op, d.n, path, follow)
	if err != nil {
		return dir.OpenResult{}, err
	}

	n := l.n
	switch {
	case n == nil && oflags.Create:
		if strings.HasSuffix(path, "/") {
			return dir.OpenResult{}, pathErr(errors.KindIsDir, op, path, "")
		}
		n = d.fs.newNode(file.TypeRegularFile)
		d.fs.link(l.parent, l.name, n)
	case n == nil:
		return dir.OpenResult{}, pathErr(errors.KindNotFound, op, path, "")
	case oflags.Create && oflags.Exclusive:
		return dir.OpenResult{}, pathErr(errors.KindAlreadyExists, op, path, "")
	case n.typ == file.TypeSymbolicLink:
		return dir.OpenResult{}, pathErr(errors.KindLoop, op, path, "final component is a symlink")
	}

	if n.typ == file.TypeDirectory {
		if write || oflags.Truncate {
			return dir.OpenResult{}, pathErr(errors.KindIsDir, op, path, "")
		}
		return dir.OpenResult{Dir: &Dir{fs: d.fs, n: n}}, nil
	}
	if oflags.Directory {
		return dir.OpenResult{}, pathErr(errors.KindNotDir, op, path, "")
	}

	if oflags.Truncate {
		if !write {
			return dir.OpenResult{}, pathErr(errors.KindInvalidArgument, op, path, "truncate requires write")
		}
		n.data = nil
		now := d.fs.now()
		n.mtim, n.ctim = now, now
	}
	return dir.OpenResult{File: &File{fs: d.fs, n: n, read: read, write: write, flags: fdflags}}, nil
}

func (d *Dir) CreateDir(_ context.Context, path string) error {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	const op = "create_dir"
	if err := d.fs.writable(op); err != nil {
		return err
	}
	l, err := d.fs.resolve(op, d.n, path, false)
	if err != nil {
		return err
	}
	if l.n != nil {
		return pathErr(errors.KindAlreadyExists, op, path, "")
	}
	d.fs.link(l.parent, l.name, d.fs.newNode(file.TypeDirectory))
	return nil
}

// Readdir lists ".", ".." and then children in creation order. Cookie 0 is
// ".", 1 is "..", and a child with sequence s sits at s+2. The root's ".."
// is the root itself.
func (d *Dir) Readdir(_ context.Context, cookie dir.Cookie) iter.Seq2[dir.Entity, error] {
	d.fs.mu.Lock()
	if d.n.removed {
		d.fs.mu.Unlock()
		return func(yield func(dir.Entity, error) bool) {
			yield(dir.Entity{}, pathErr(errors.KindNotFound, "readdir", "", "directory removed"))
		}
	}
	var list []dir.Entity
	if cookie == 0 {
		list = append(list, dir.Entity{Name: ".", Next: 1, Inode: d.n.ino, FileType: file.TypeDirectory})
	}
	if cookie <= 1 {
		up := d.n.ino
		if d.n.parent != nil {
			up = d.n.parent.ino
		}
		list = append(list, dir.Entity{Name: "..", Next: 2, Inode: up, FileType: file.TypeDirectory})
	}
	type seqEntity struct {
		e   dir.Entity
		seq uint64
	}
	var kids []seqEntity
	for name, c := range d.n.children {
		pos := dir.Cookie(c.seq + 2)
		if pos < cookie {
			continue
		}
		kids = append(kids, seqEntity{
			seq: c.seq,
			e:   dir.Entity{Name: name, Next: pos + 1, Inode: c.n.ino, FileType: c.n.typ},
		})
	}
	d.fs.mu.Unlock()

	sort.Slice(kids, func(i, j int) bool { return kids[i].seq < kids[j].seq })
	for _, k := range kids {
		list = append(list, k.e)
	}

	return func(yield func(dir.Entity, error) bool) {
		for _, e := range list {
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (d *Dir) Symlink(_ context.Context, oldPath, newPath string) error {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	const op = "symlink"
	if err := d.fs.writable(op); err != nil {
		return err
	}
	if strings.HasPrefix(oldPath, "/") {
		return pathErr(errors.KindPermissionDenied, op, oldPath, "absolute symlink target")
	}
	l, err := d.fs.resolve(op, d.n, newPath, false)
	if err != nil {
		return err
	}
	if l.n != nil {
		return pathErr(errors.KindAlreadyExists, op, newPath, "")
	}
	n := d.fs.newNode(file.TypeSymbolicLink)
	n.target = oldPath
	d.fs.link(l.parent, l.name, n)
	return nil
}

func (d *Dir) ReadLink(_ context.Context, path string) (string, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	const op = "read_link"
	l, err := d.fs.resolve(op, d.n, path, false)
	if err != nil {
		return "", err
	}
	if l.n == nil {
		return "", pathErr(errors.KindNotFound, op, path, "")
	}
	if l.n.typ != file.TypeSymbolicLink {
		return "", pathErr(errors.KindInvalidArgument, op, path, "not a symlink")
	}
	return l.n.target, nil
}

func (d *Dir) RemoveDir(_ context.Context, path string) error {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	const op = "remove_dir"
	if err := d.fs.writable(op); err != nil {
		return err
	}
	l, err := d.fs.resolve(op, d.n, path, false)
	if err != nil {
		return err
	}
	if l.n == nil {
		return pathErr(errors.KindNotFound, op, path, "")
	}
	if err := named(op, path, l); err != nil {
		return err
	}
	if l.n.typ != file.TypeDirectory {
		return pathErr(errors.KindNotDir, op, path, "")
	}
	if len(l.n.children) > 0 {
		return pathErr(errors.KindNotEmpty, op, path, "")
	}
	d.fs.unlink(l.parent, l.name)
	return nil
}

func (d *Dir) UnlinkFile(_ context.Context, path string) error {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	const op = "unlink_file"
	if err := d.fs.writable(op); err != nil {
		return err
	}
	l, err := d.fs.resolve(op, d.n, path, false)
	if err != nil {
		return err
	}
	if l.n == nil {
		return pathErr(errors.KindNotFound, op, path, "")
	}
	if err := named(op, path, l); err != nil {
		return err
	}
	if l.n.typ == file.TypeDirectory {
		return pathErr(errors.KindIsDir, op, path, "")
	}
	d.fs.unlink(l.parent, l.name)
	return nil
}

func (d *Dir) Stat(context.Context) (file.Filestat, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()
	return d.fs.stat(d.n), nil
}

func (d *Dir) StatAt(_ context.Context, follow bool, path string) (file.Filestat, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	l, err := d.fs.resolve("stat_at", d.n, path, follow)
	if err != nil {
		return file.Filestat{}, err
	}
	if l.n == nil {
		return file.Filestat{}, pathErr(errors.KindNotFound, "stat_at", path, "")
	}
	return d.fs.stat(l.n), nil
}

func (d *Dir) SetTimesAt(_ context.Context, follow bool, path string, atim, mtim *file.SystemTimeSpec) error {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	const op = "set_times_at"
	if err := d.fs.writable(op); err != nil {
		return err
	}
	l, err := d.fs.resolve(op, d.n, path, follow)
	if err != nil {
		return err
	}
	if l.n == nil {
		return pathErr(errors.KindNotFound, op, path, "")
	}
	d.fs.setTimes(l.n, atim, mtim)
	return nil
}

func (fs *FS) setTimes(n *node, atim, mtim *file.SystemTimeSpec) {
	if t, ok := atim.Resolve(fs.now); ok {
		n.atim = t
	}
	if t, ok := mtim.Resolve(fs.now); ok {
		n.mtim = t
	}
	n.ctim = fs.now()
}

func (d *Dir) peer(op string, other dir.Dir) (*Dir, error) {
	od, ok := other.(*Dir)
	if !ok || od.fs != d.fs {
		return nil, errors.New(errors.PhaseBackend, errors.KindCrossDevice).Op(op).Detail("target directory is on another filesystem").Build()
	}
	return od, nil
}

// Rename runs under the FS lock, so no other operation observes an
// intermediate state.
func (d *Dir) Rename(_ context.Context, oldPath string, newDir dir.Dir, newPath string) error {
	const op = "rename"
	nd, err := d.peer(op, newDir)
	if err != nil {
		return err
	}

	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	if err := d.fs.writable(op); err != nil {
		return err
	}
	src, err := d.fs.resolve(op, d.n, oldPath, false)
	if err != nil {
		return err
	}
	if src.n == nil {
		return pathErr(errors.KindNotFound, op, oldPath, "")
	}
	if err := named(op, oldPath, src); err != nil {
		return err
	}
	dst, err := d.fs.resolve(op, nd.n, newPath, false)
	if err != nil {
		return err
	}
	if err := named(op, newPath, dst); err != nil {
		return err
	}
	if src.n == dst.n {
		return nil
	}

	if src.n.typ == file.TypeDirectory && isAncestor(src.n, dst.parent) {
		return pathErr(errors.KindInvalidArgument, op, newPath, "cannot move a directory into itself")
	}

	if dst.n != nil {
		switch {
		case src.n.typ == file.TypeDirectory && dst.n.typ != file.TypeDirectory:
			return pathErr(errors.KindNotDir, op, newPath, "")
		case src.n.typ != file.TypeDirectory && dst.n.typ == file.TypeDirectory:
			return pathErr(errors.KindIsDir, op, newPath, "")
		case dst.n.typ == file.TypeDirectory && len(dst.n.children) > 0:
			return pathErr(errors.KindNotEmpty, op, newPath, "")
		}
		d.fs.unlink(dst.parent, dst.name)
	}

	moved := src.parent.children[src.name].n
	delete(src.parent.children, src.name)
	now := d.fs.now()
	src.parent.mtim, src.parent.ctim = now, now
	d.fs.link(dst.parent, dst.name, moved)
	moved.ctim = now
	return nil
}

func isAncestor(dirNode, n *node) bool {
	if n == dirNode {
		return true
	}
	for _, c := range dirNode.children {
		if c.n.typ == file.TypeDirectory && isAncestor(c.n, n) {
			return true
		}
	}
	return false
}

func (d *Dir) HardLink(_ context.Context, oldPath string, newDir dir.Dir, newPath string) error {
	const op = "hard_link"
	nd, err := d.peer(op, newDir)
	if err != nil {
		return err
	}

	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	if err := d.fs.writable(op); err != nil {
		return err
	}
	src, err := d.fs.resolve(op, d.n, oldPath, false)
	if err != nil {
		return err
	}
	if src.n == nil {
		return pathErr(errors.KindNotFound, op, oldPath, "")
	}
	if src.n.typ == file.TypeDirectory {
		return pathErr(errors.KindPermissionDenied, op, oldPath, "cannot hard link a directory")
	}
	dst, err := d.fs.resolve(op, nd.n, newPath, false)
	if err != nil {
		return err
	}
	if dst.n != nil {
		return pathErr(errors.KindAlreadyExists, op, newPath, "")
	}
	src.n.nlink++
	src.n.ctim = d.fs.now()
	d.fs.link(dst.parent, dst.name, src.n)
	return nil
}

func (d *Dir) Close(context.Context) error { return nil }
