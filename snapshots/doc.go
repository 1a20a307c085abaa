// Package snapshots holds what the preview0 and preview1 dispatchers share:
// the Version function table, the guest memory helpers and the ABI type
// whose fields carry the encodings that differ between the two.
//
// Handlers decode raw wasm parameters, run the version-neutral operation on
// a *wasi.Ctx and encode the result. Ordinary failures become the
// snapshot's errno. Exit and trap signals are returned as errors and never as
// an errno; the engine raises them.
package snapshots
