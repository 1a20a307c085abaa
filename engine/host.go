package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/snapshots"
	"github.com/wippyai/wasi-common/snapshots/preview0"
	"github.com/wippyai/wasi-common/snapshots/preview1"
	"github.com/wippyai/wasi-common/wasi"
)

// Versions lists every snapshot the engine can register, oldest first.
var Versions = []*snapshots.Version{preview0.Version, preview1.Version}

// VersionByName returns the snapshot exported under module name.
func VersionByName(name string) (*snapshots.Version, bool) {
	for _, v := range Versions {
		if v.Name() == name {
			return v, true
		}
	}
	return nil, false
}

type ctxKey struct{}

// WithContext returns ctx carrying c. Host functions called with such a
// context dispatch against c instead of the context bound at
// instantiation, so one set of host modules can serve several guests.
func WithContext(ctx context.Context, c *wasi.Ctx) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the execution context carried by ctx, if any.
func FromContext(ctx context.Context) (*wasi.Ctx, bool) {
	c, ok := ctx.Value(ctxKey{}).(*wasi.Ctx)
	return c, ok && c != nil
}

// Option configures Instantiate.
type Option func(*options)

type options struct {
	stats    *Stats
	versions []*snapshots.Version
}

// WithSnapshots limits registration to the named snapshots.
func WithSnapshots(names ...string) Option {
	return func(o *options) {
		o.versions = o.versions[:0]
		for _, n := range names {
			if v, ok := VersionByName(n); ok {
				o.versions = append(o.versions, v)
			}
		}
	}
}

// WithStats records per-function call counts and timings into s.
func WithStats(s *Stats) Option {
	return func(o *options) { o.stats = s }
}

// Host is the set of snapshot host modules registered in one runtime.
type Host struct {
	modules []api.Module
}

// Modules returns the instantiated host modules.
func (h *Host) Modules() []api.Module { return h.modules }

// Close closes every host module.
func (h *Host) Close(ctx context.Context) error {
	var firstErr error
	for _, m := range h.modules {
		if err := m.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	h.modules = nil
	return firstErr
}

// Instantiate registers the snapshot host modules in r, dispatching
// against c unless a call's context carries another one (WithContext).
// By default both snapshots are registered.
func Instantiate(ctx context.Context, r wazero.Runtime, c *wasi.Ctx, opts ...Option) (*Host, error) {
	o := options{versions: append([]*snapshots.Version(nil), Versions...)}
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.versions) == 0 {
		return nil, errors.New(errors.PhaseHost, errors.KindInvalidArgument).
			Detail("no snapshot selected").Build()
	}

	h := &Host{}
	for _, v := range o.versions {
		mod, err := hostModule(r, v, c, o.stats).Instantiate(ctx)
		if err != nil {
			_ = h.Close(ctx)
			return nil, errors.Wrap(errors.PhaseHost, errors.KindIo, err, "instantiate "+v.Name())
		}
		Logger().Debug("host module instantiated",
			zap.String("module", v.Name()), zap.Int("funcs", len(v.Funcs())))
		h.modules = append(h.modules, mod)
	}
	return h, nil
}

func hostModule(r wazero.Runtime, v *snapshots.Version, bound *wasi.Ctx, stats *Stats) wazero.HostModuleBuilder {
	b := r.NewHostModuleBuilder(v.Name())
	for _, f := range v.Funcs() {
		var results []api.ValueType
		if !f.NoResult {
			results = []api.ValueType{api.ValueTypeI32}
		}
		b = b.NewFunctionBuilder().
			WithGoModuleFunction(hostFunc(v, f, bound, stats), valueTypes(f.Params), results).
			WithParameterNames(f.ParamNames...).
			Export(f.Name)
	}
	return b
}

func valueTypes(in []snapshots.ValueType) []api.ValueType {
	out := make([]api.ValueType, len(in))
	for i, t := range in {
		switch t {
		case snapshots.I64:
			out[i] = api.ValueTypeI64
		default:
			out[i] = api.ValueTypeI32
		}
	}
	return out
}

func hostFunc(v *snapshots.Version, f snapshots.Func, bound *wasi.Ctx, stats *Stats) api.GoModuleFunc {
	n := len(f.Params)
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		c := bound
		if override, ok := FromContext(ctx); ok {
			c = override
		}
		if c == nil {
			panic(fmt.Errorf("%s.%s: no execution context", v.Name(), f.Name))
		}

		start := time.Now()
		errno, err := v.Invoke(ctx, f, c, NewMemory(mod.Memory()), stack[:n])
		if stats != nil {
			stats.record(v.Name(), f.Name, errno, err, time.Since(start))
		}
		if err != nil {
			raise(ctx, mod, err)
		}
		if !f.NoResult {
			stack[0] = uint64(errno)
		}
	}
}

// raise unwinds the guest. A requested exit closes the module with its
// code the way wazero's own proc_exit does; anything else is a trap.
func raise(ctx context.Context, mod api.Module, err error) {
	if exit, ok := errors.AsExit(err); ok {
		_ = mod.CloseWithExitCode(ctx, exit.Code)
		panic(sys.NewExitError(exit.Code))
	}
	Logger().Debug("guest trap", zap.String("module", mod.Name()), zap.Error(err))
	panic(err)
}
