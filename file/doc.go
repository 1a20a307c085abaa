// Package file defines the file capability: the contract a backend
// implements to put a file-like resource behind a guest handle.
//
// # Position Models
//
// A backend reports its position model through Positioning:
//
//	PositionCursor    Read/Write/Seek share a backend cursor
//	PositionExplicit  ReadAt/WriteAt take an offset and leave the cursor alone
//
// Dispatchers honor whatever is reported. Explicit-only backends can be
// wrapped with WithCursor to get a host-tracked cursor; cursor-only backends
// (pipes, terminals) reject positional I/O with KindInvalidSeek.
//
// # Partial Backends
//
// Embed Unimplemented and override what the backend supports:
//
//	type devNull struct{ file.Unimplemented }
//
//	func (devNull) Write(_ context.Context, bufs [][]byte) (uint64, error) {
//	    return file.Total(bufs), nil
//	}
package file
