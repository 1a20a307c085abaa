// Package wasi holds the execution context of one guest instance and the
// version-neutral implementation of every legacy WASI call.
//
// A Ctx owns the handle table, clocks, scheduler, random source and the
// argument and environment strings. The snapshot packages decode guest
// memory into the plain Go arguments the Ctx methods take and encode the
// results back; nothing in this package knows about either ABI encoding.
//
// Every method follows the same order: resolve the handle and check that
// the stored value is the capability the call needs (BadHandle and
// NotSupported), then check the legacy right (NotCapable), then call the
// backend.
//
// Calls against one Ctx must not run concurrently.
package wasi
