package snapshots

import (
	"context"

	"go.uber.org/zap"

	wasicommon "github.com/wippyai/wasi-common"
	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/wasi"
)

// ValueType is a core wasm value type. Values are the binary encoding so
// engines can convert them directly.
type ValueType byte

const (
	I32 ValueType = 0x7f
	I64 ValueType = 0x7e
)

// Handler runs one ABI function over raw wasm parameters. It returns the
// errno result. err is non-nil only for exit and trap signals, which the
// engine must propagate instead of returning to the guest.
type Handler func(ctx context.Context, c *wasi.Ctx, mem wasicommon.Memory, params []uint64) (errno uint32, err error)

// Func describes one exported ABI function.
type Func struct {
	Call       Handler
	Name       string
	Params     []ValueType
	ParamNames []string
	// NoResult marks functions without an errno result (proc_exit).
	NoResult bool
}

// ErrnoNamer renders an errno for logs.
type ErrnoNamer func(errno uint32) string

// Version is the function set of one snapshot.
type Version struct {
	byName map[string]int
	namer  ErrnoNamer
	name   string
	funcs  []Func
}

// NewVersion creates a version exported under module name.
func NewVersion(name string, namer ErrnoNamer, funcs ...Func) *Version {
	v := &Version{name: name, namer: namer, funcs: funcs, byName: make(map[string]int, len(funcs))}
	for i, f := range funcs {
		v.byName[f.Name] = i
	}
	return v
}

// Name returns the wasm import module name.
func (v *Version) Name() string { return v.name }

// Funcs returns the functions in export order.
func (v *Version) Funcs() []Func { return v.funcs }

// Lookup returns the function named name.
func (v *Version) Lookup(name string) (Func, bool) {
	i, ok := v.byName[name]
	if !ok {
		return Func{}, false
	}
	return v.funcs[i], true
}

// Check fails with NotSupported when the version does not define name.
func (v *Version) Check(name string) error {
	if _, ok := v.byName[name]; !ok {
		return errors.New(errors.PhaseDispatch, errors.KindNotSupported).
			Op(name).Detail("%s does not define %s", v.name, name).Build()
	}
	return nil
}

// ErrnoName renders errno using the version's table.
func (v *Version) ErrnoName(errno uint32) string {
	if v.namer == nil {
		return "unknown"
	}
	return v.namer(errno)
}

// Call dispatches name through the version. Functions the version does not
// define fail with NotSupported before any argument is decoded.
func (v *Version) Call(ctx context.Context, name string, c *wasi.Ctx, mem wasicommon.Memory, params []uint64) (uint32, error) {
	if err := v.Check(name); err != nil {
		return 0, err
	}
	f, _ := v.Lookup(name)
	return v.Invoke(ctx, f, c, mem, params)
}

// Invoke runs f and logs the outcome at debug level.
func (v *Version) Invoke(ctx context.Context, f Func, c *wasi.Ctx, mem wasicommon.Memory, params []uint64) (uint32, error) {
	errno, err := f.Call(ctx, c, mem, params)
	if ce := Logger().Check(zap.DebugLevel, "wasi call"); ce != nil {
		fields := []zap.Field{zap.String("module", v.name), zap.String("func", f.Name)}
		if err != nil {
			fields = append(fields, zap.Error(err))
		} else if !f.NoResult {
			fields = append(fields, zap.String("errno", v.ErrnoName(errno)))
		}
		ce.Write(fields...)
	}
	return errno, err
}
