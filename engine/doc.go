// Package engine runs WASI command modules on wazero.
//
// Each snapshot (wasi_unstable and wasi_snapshot_preview1) is registered as
// a wazero host module whose functions forward to the snapshot dispatcher.
// The dispatcher decodes guest memory, calls the execution context and
// encodes the result as an errno.
//
// # Binding
//
// Host modules are registered once per runtime. The execution context a
// call dispatches against comes from the call's context.Context:
//
//	e, err := engine.New(ctx, nil)
//	if err != nil {
//	    return err
//	}
//	defer e.Close(ctx)
//
//	c, err := wasi.New().WithArgs("app").WithStdout(out).Build()
//	if err != nil {
//	    return err
//	}
//	code, err := e.Run(ctx, wasm, c)
//
// Guests instantiated without a bound context panic on their first WASI
// call. Instantiate accepts a fixed context for runtimes that only ever
// run one guest.
//
// # Exit and traps
//
// proc_exit closes the guest module with the requested code and unwinds
// with a wazero sys.ExitError, which Run reports as an exit status. Any
// other terminal error, such as guest pointer arithmetic that overflows, unwinds
// as a trap and is returned as an errors.TrapError.
//
// # Memory64
//
// Not supported. wazero v1.10.1 implements 32-bit memories only, and the
// snapshot ABIs address guest memory with 32-bit pointers.
package engine
