package errors

import (
	stderrors "errors"
	"fmt"
)

// ExitError is the guest's request to terminate with Code. It is not an
// I/O failure: dispatchers return it as-is and it unwinds to the embedding.
type ExitError struct {
	Code uint32
}

// Exit creates a requested-exit signal
func Exit(code uint32) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("guest requested exit with status %d", e.Code)
}

// TrapError is an unrecoverable host-side violation. The guest instance
// must be aborted; no errno is produced.
type TrapError struct {
	Cause  error
	Reason string
}

// Trap creates a trap signal
func Trap(reason string, cause error) *TrapError {
	return &TrapError{Reason: reason, Cause: cause}
}

func (e *TrapError) Error() string {
	if e.Cause != nil {
		return "trap: " + e.Reason + ": " + e.Cause.Error()
	}
	return "trap: " + e.Reason
}

// Unwrap returns the underlying error
func (e *TrapError) Unwrap() error {
	return e.Cause
}

// AsExit extracts a requested exit from err.
func AsExit(err error) (*ExitError, bool) {
	var e *ExitError
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsExit reports whether err carries a requested exit.
func IsExit(err error) bool {
	_, ok := AsExit(err)
	return ok
}

// IsTrap reports whether err carries a trap.
func IsTrap(err error) bool {
	var e *TrapError
	return stderrors.As(err, &e)
}

// IsTerminal reports whether err must propagate past the dispatcher
// boundary instead of becoming an errno.
func IsTerminal(err error) bool {
	return IsExit(err) || IsTrap(err)
}
