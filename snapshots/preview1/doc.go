// Package preview1 is the wasi_snapshot_preview1 dispatcher.
package preview1
