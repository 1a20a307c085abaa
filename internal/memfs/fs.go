package memfs

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/file"
)

const maxSymlinkDepth = 40

var deviceSeq atomic.Uint64

// FS is an in-memory directory tree. All handles opened from one FS share
// its nodes; the FS lock serializes every operation.
type FS struct {
	root     *node
	now      func() time.Time
	mu       sync.Mutex
	inodeSeq uint64
	device   uint64
	readOnly bool
}

// Option configures an FS.
type Option func(*FS)

// WithClock sets the timestamp source for new and modified nodes.
func WithClock(now func() time.Time) Option {
	return func(fs *FS) { fs.now = now }
}

// ReadOnly rejects every mutation with KindNotSupported.
func ReadOnly() Option {
	return func(fs *FS) { fs.readOnly = true }
}

// New creates an empty FS.
func New(opts ...Option) *FS {
	fs := &FS{now: time.Now, device: deviceSeq.Add(1)}
	for _, o := range opts {
		o(fs)
	}
	fs.root = fs.newNode(file.TypeDirectory)
	return fs
}

// Root returns a directory handle on the tree root.
func (fs *FS) Root() *Dir {
	return &Dir{fs: fs, n: fs.root}
}

// SetReadOnly toggles read-only mode. Loaders build the tree first and
// seal it afterwards.
func (fs *FS) SetReadOnly(ro bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.readOnly = ro
}

type node struct {
	atim, mtim, ctim time.Time
	children         map[string]*child
	parent           *node
	target           string
	data             []byte
	ino              uint64
	nlink            uint64
	nextSeq          uint64
	typ              file.FileType
	removed          bool
}

// child is a directory entry. seq orders entries for readdir cookies and
// only grows, so resuming never re-emits an earlier entry.
type child struct {
	n   *node
	seq uint64
}

func (fs *FS) newNode(typ file.FileType) *node {
	fs.inodeSeq++
	now := fs.now()
	n := &node{ino: fs.inodeSeq, typ: typ, nlink: 1, atim: now, mtim: now, ctim: now}
	if typ == file.TypeDirectory {
		n.children = map[string]*child{}
	}
	return n
}

func (fs *FS) stat(n *node) file.Filestat {
	st := file.Filestat{
		Device:   fs.device,
		Inode:    n.ino,
		FileType: n.typ,
		Nlink:    n.nlink,
		Atim:     n.atim,
		Mtim:     n.mtim,
		Ctim:     n.ctim,
	}
	switch n.typ {
	case file.TypeRegularFile:
		st.Size = uint64(len(n.data))
	case file.TypeSymbolicLink:
		st.Size = uint64(len(n.target))
	}
	return st
}

func (fs *FS) link(parent *node, name string, n *node) {
	parent.children[name] = &child{n: n, seq: parent.nextSeq}
	parent.nextSeq++
	if n.typ == file.TypeDirectory {
		n.parent = parent
	}
	now := fs.now()
	parent.mtim, parent.ctim = now, now
}

func (fs *FS) unlink(parent *node, name string) *node {
	c := parent.children[name]
	delete(parent.children, name)
	now := fs.now()
	parent.mtim, parent.ctim = now, now
	c.n.nlink--
	c.n.ctim = now
	if c.n.nlink == 0 || c.n.typ == file.TypeDirectory {
		c.n.removed = true
	}
	return c.n
}

func (fs *FS) writable(op string) error {
	if fs.readOnly {
		return errors.New(errors.PhaseBackend, errors.KindNotSupported).Op(op).Detail("read-only filesystem").Build()
	}
	return nil
}

// lookup is the result of resolving a path: the directory holding the
// final component, the component name and the node it names (nil when
// absent).
type lookup struct {
	parent *node
	n      *node
	name   string
}

func pathErr(kind errors.Kind, op, path, detail string) error {
	return errors.New(errors.PhaseBackend, kind).Op(op).Path(path).Detail("%s", detail).Build()
}

// resolve walks path from start. Intermediate symlinks are always followed;
// the final one only when follow is set. Paths may not be absolute or climb
// above start.
func (fs *FS) resolve(op string, start *node, path string, follow bool) (lookup, error) {
	if start.removed {
		return lookup{}, pathErr(errors.KindNotFound, op, path, "directory removed")
	}
	if path == "" {
		return lookup{}, pathErr(errors.KindNotFound, op, path, "empty path")
	}
	if strings.IndexByte(path, 0) >= 0 {
		return lookup{}, pathErr(errors.KindIllegalByteSequence, op, path, "NUL in path")
	}
	stack := []*node{start}
	depth := 0
	return fs.walk(op, stack, path, path, follow, &depth)
}

func (fs *FS) walk(op string, stack []*node, path, orig string, follow bool, depth *int) (lookup, error) {
	if strings.HasPrefix(path, "/") {
		return lookup{}, pathErr(errors.KindPermissionDenied, op, orig, "absolute path")
	}
	trailingSlash := strings.HasSuffix(path, "/")
	parts := strings.Split(strings.TrimRight(path, "/"), "/")

	for i, part := range parts {
		last := i == len(parts)-1
		cur := stack[len(stack)-1]
		if cur.typ != file.TypeDirectory {
			return lookup{}, pathErr(errors.KindNotDir, op, orig, "")
		}

		switch part {
		case "", ".":
			if last {
				return lookup{parent: cur, n: cur, name: "."}, nil
			}
			continue
		case "..":
			if len(stack) == 1 {
				return lookup{}, pathErr(errors.KindPermissionDenied, op, orig, "path escapes directory")
			}
			stack = stack[:len(stack)-1]
			if last {
				top := stack[len(stack)-1]
				return lookup{parent: top, n: top, name: ".."}, nil
			}
			continue
		}

		c, ok := cur.children[part]
		if !ok {
			if last {
				return lookup{parent: cur, name: part}, nil
			}
			return lookup{}, pathErr(errors.KindNotFound, op, orig, "")
		}

		if c.n.typ == file.TypeSymbolicLink && (!last || follow || trailingSlash) {
			*depth++
			if *depth > maxSymlinkDepth {
				return lookup{}, pathErr(errors.KindLoop, op, orig, "too many symlinks")
			}
			rest := c.n.target
			if !last {
				rest += "/" + strings.Join(parts[i+1:], "/")
			}
			if trailingSlash {
				rest += "/"
			}
			return fs.walk(op, stack, rest, orig, follow, depth)
		}

		if last {
			if trailingSlash && c.n.typ != file.TypeDirectory {
				return lookup{}, pathErr(errors.KindNotDir, op, orig, "")
			}
			return lookup{parent: cur, n: c.n, name: part}, nil
		}
		stack = append(stack, c.n)
	}
	cur := stack[len(stack)-1]
	return lookup{parent: cur, n: cur, name: "."}, nil
}
