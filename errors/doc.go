// Package errors provides the error model shared by the resource table,
// the capability contracts and both snapshot dispatchers.
//
// Ordinary failures are *Error values tagged with a Kind; dispatchers map
// kinds to version-specific errno values. Two outcomes are not ordinary:
//
//	*ExitError  - the guest asked to terminate with a status code
//	*TrapError  - a host-side violation that aborts the guest instance
//
// Both propagate past the dispatcher to the embedding, which decides what
// happens to the process.
//
// Use errors.Is with the package sentinels to test kinds:
//
//	if errors.Is(err, errors.ErrBadHandle) { ... }
package errors
