package engine

import (
	"context"
	stderrors "errors"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/wasi"
)

// Engine is a wazero runtime with the snapshot host modules registered.
// Guests are bound to an execution context per run, so one Engine can run
// many guests.
type Engine struct {
	runtime wazero.Runtime
	host    *Host
}

// Config holds configuration for engine creation
type Config struct {
	// Stats receives per-function call summaries when set.
	Stats *Stats

	// Snapshots limits the registered snapshots by module name. Empty
	// registers all of them.
	Snapshots []string

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// CloseOnContextDone interrupts running guests when the run's context
	// is cancelled.
	CloseOnContextDone bool
}

// New creates an engine. A nil cfg uses the defaults.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	var opts []Option
	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.CloseOnContextDone {
			runtimeCfg = runtimeCfg.WithCloseOnContextDone(true)
		}
		if len(cfg.Snapshots) > 0 {
			opts = append(opts, WithSnapshots(cfg.Snapshots...))
		}
		if cfg.Stats != nil {
			opts = append(opts, WithStats(cfg.Stats))
		}
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	host, err := Instantiate(ctx, runtime, nil, opts...)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, err
	}
	return &Engine{runtime: runtime, host: host}, nil
}

// Runtime returns the underlying wazero runtime.
func (e *Engine) Runtime() wazero.Runtime { return e.runtime }

// Close releases the runtime and every module in it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Run compiles and runs a command module against c and returns its exit
// status. A guest that returns from _start exits with 0. Traps are
// returned as errors.
func (e *Engine) Run(ctx context.Context, wasm []byte, c *wasi.Ctx) (uint32, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseHost, errors.KindInvalidArgument, err, "compile module")
	}
	defer compiled.Close(ctx)

	Logger().Debug("running guest", zap.Int("imports", len(compiled.ImportedFunctions())))
	// Anonymous, so several guests can run at once.
	cfg := wazero.NewModuleConfig().WithName("").WithStartFunctions("_start")
	mod, err := e.runtime.InstantiateModule(WithContext(ctx, c), compiled, cfg)
	if mod != nil {
		defer mod.Close(ctx)
	}
	return ExitCode(err)
}

// ExitCode interprets the error of a guest call. nil is a clean exit, a
// wazero exit error carries the requested status, and anything else is
// a trap.
func ExitCode(err error) (uint32, error) {
	if err == nil {
		return 0, nil
	}
	var exit *sys.ExitError
	if stderrors.As(err, &exit) {
		return exit.ExitCode(), nil
	}
	if errors.IsTrap(err) {
		return 0, err
	}
	return 0, errors.Trap("guest aborted", err)
}
