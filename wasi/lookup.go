package wasi

import (
	"github.com/wippyai/wasi-common/dir"
	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/file"
	"github.com/wippyai/wasi-common/resource"
)

// capability resolves h as T and checks it carries right. The structural
// check comes first so a directory handle passed to a file call reports
// the capability mismatch rather than a missing right.
func capability[T any](c *Ctx, op string, h resource.Handle, right uint64) (T, resource.Entry, error) {
	var zero T
	e, err := c.table.Lookup(h)
	if err != nil {
		return zero, e, errors.WithOp(err, op, uint32(h))
	}
	v, ok := e.Value.(T)
	if !ok {
		return zero, e, errors.New(errors.PhaseTable, errors.KindNotSupported).
			Op(op).Handle(uint32(h)).Detail("%T does not support %s", e.Value, op).Build()
	}
	if !e.Rights.Has(right) {
		return zero, e, errors.New(errors.PhaseDispatch, errors.KindNotCapable).
			Op(op).Handle(uint32(h)).Detail("missing right %s", resource.FormatRights(right&^rightsOf(e).Base)).Build()
	}
	return v, e, nil
}

func (c *Ctx) file(op string, h resource.Handle, right uint64) (file.File, error) {
	f, _, err := capability[file.File](c, op, h, right)
	return f, err
}

func (c *Ctx) dir(op string, h resource.Handle, right uint64) (dir.Dir, error) {
	d, _, err := capability[dir.Dir](c, op, h, right)
	return d, err
}

// rightsOf reports the effective rights of e. Unrestricted entries
// report every right.
func rightsOf(e resource.Entry) resource.Rights {
	if e.Rights == nil {
		return resource.Rights{Base: resource.RightsAll, Inheriting: resource.RightsAll}
	}
	return *e.Rights
}

// backend annotates a backend failure with the operation and handle.
func backend(err error, op string, h resource.Handle) error {
	if err == nil || errors.IsTerminal(err) {
		return err
	}
	return errors.WithOp(errors.FromOS(err), op, uint32(h))
}
