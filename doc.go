// Package wasicommon is the host-side support layer for WASI snapshot
// preview0 (wasi_unstable) and preview1 (wasi_snapshot_preview1) guests.
//
// A guest never sees host objects. It sees small integer handles that the
// host resolves through a per-instance resource table and checks against
// two capability interfaces: file.File for file-like resources and dir.Dir
// for directory-like resources. Backends implement those interfaces; this
// module never instantiates a concrete filesystem itself.
//
// # Architecture Overview
//
//	wasicommon/          Root package with the guest Memory interface
//	├── errors/          Error kinds, exit and trap signals
//	├── resource/        Handle table with typed lookup and legacy rights
//	├── file/            File capability contract
//	├── dir/             Directory capability contract
//	├── clocks/          Wall and monotonic clocks (real and virtual)
//	├── sched/           sched_yield and poll_oneoff
//	├── random/          Secure and deterministic random sources
//	├── pipe/            Stream files over io.Reader / io.Writer
//	├── wasi/            Execution context and shared syscall core
//	├── snapshots/       preview0 and preview1 dispatchers
//	├── engine/          wazero host module registration
//	├── config/          YAML / JSONC context configuration
//	└── cmd/run          Command runner
//
// # Quick Start
//
//	c, err := wasi.New().
//	    WithArgs("app", "--verbose").
//	    WithEnv("HOME", "/home/guest").
//	    WithStdout(pipe.NewWritePipe(os.Stdout)).
//	    WithPreopenedDir(scratch, "/scratch").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close(ctx)
//
//	r := wazero.NewRuntime(ctx)
//	defer r.Close(ctx)
//	if err := engine.Instantiate(ctx, r, c); err != nil {
//	    log.Fatal(err)
//	}
//	_, err = r.Instantiate(ctx, guestWasm)
//
// # Thread Safety
//
// One wasi.Ctx belongs to one guest instance. Calls against the same Ctx
// must not run concurrently. Independent contexts share nothing and may be
// used from different goroutines.
package wasicommon
