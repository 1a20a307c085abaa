package memfs

import (
	"context"
	stdfs "io/fs"
	"path"

	"github.com/wippyai/wasi-common/dir"
	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/file"
)

// WriteFile creates or replaces the file at p, creating parent
// directories. It bypasses read-only mode and is meant for seeding.
func (m *FS) WriteFile(p string, data []byte) error {
	m.mu.Lock()
	ro := m.readOnly
	m.readOnly = false
	m.mu.Unlock()
	defer m.SetReadOnly(ro)

	ctx := context.Background()
	root := m.Root()
	if parent := path.Dir(p); parent != "." {
		if err := m.mkdirAll(ctx, parent); err != nil {
			return err
		}
	}
	res, err := root.OpenFile(ctx, true, p, dir.OpenFlags{Create: true, Truncate: true}, false, true, 0)
	if err != nil {
		return err
	}
	if res.File == nil {
		return errors.New(errors.PhaseBackend, errors.KindIsDir).Op("write_file").Path(p).Build()
	}
	defer res.File.Close(ctx)
	_, err = res.File.WriteAt(ctx, [][]byte{data}, 0)
	return err
}

// MkdirAll creates p and any missing parents.
func (m *FS) MkdirAll(p string) error {
	m.mu.Lock()
	ro := m.readOnly
	m.readOnly = false
	m.mu.Unlock()
	defer m.SetReadOnly(ro)

	return m.mkdirAll(context.Background(), p)
}

func (m *FS) mkdirAll(ctx context.Context, p string) error {
	root := m.Root()
	cur := ""
	for _, part := range splitClean(p) {
		cur = path.Join(cur, part)
		st, err := root.StatAt(ctx, true, cur)
		if err == nil {
			if st.FileType != file.TypeDirectory {
				return errors.New(errors.PhaseBackend, errors.KindNotDir).Op("mkdir_all").Path(cur).Build()
			}
			continue
		}
		if errors.KindOf(err) != errors.KindNotFound {
			return err
		}
		if err := root.CreateDir(ctx, cur); err != nil {
			return err
		}
	}
	return nil
}

func splitClean(p string) []string {
	var parts []string
	for p = path.Clean(p); p != "." && p != "/"; p = path.Dir(p) {
		parts = append([]string{path.Base(p)}, parts...)
	}
	return parts
}

// Import copies every directory and regular file in src into the tree.
// Symlinks and special files are skipped.
func (m *FS) Import(src stdfs.FS) error {
	return stdfs.WalkDir(src, ".", func(p string, d stdfs.DirEntry, err error) error {
		if err != nil {
			return errors.FromOS(err)
		}
		if p == "." {
			return nil
		}
		switch {
		case d.IsDir():
			return m.MkdirAll(p)
		case d.Type().IsRegular():
			data, err := stdfs.ReadFile(src, p)
			if err != nil {
				return errors.FromOS(err)
			}
			return m.WriteFile(p, data)
		}
		return nil
	})
}
