package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseTable    Phase = "table"    // handle resolution
	PhaseDispatch Phase = "dispatch" // ABI function semantics
	PhaseBackend  Phase = "backend"  // capability implementation
	PhaseDecode   Phase = "decode"   // guest memory to Go
	PhaseEncode   Phase = "encode"   // Go to guest memory
	PhaseConfig   Phase = "config"   // context construction
	PhaseHost     Phase = "host"     // engine registration
)

// Kind categorizes the error. Every backend failure is expressed as one of
// these before it reaches a dispatcher.
type Kind string

const (
	KindBadHandle        Kind = "bad_handle"
	KindNotSupported     Kind = "not_supported"
	KindInvalidArgument  Kind = "invalid_argument"
	KindNotFound         Kind = "not_found"
	KindAlreadyExists    Kind = "already_exists"
	KindPermissionDenied Kind = "permission_denied"
	KindNoSpace          Kind = "no_space"
	KindInterrupted      Kind = "interrupted"
	KindIo               Kind = "io"
	KindOverflow         Kind = "overflow"
	KindTooManyHandles   Kind = "too_many_handles"

	KindNotDir              Kind = "not_dir"
	KindIsDir               Kind = "is_dir"
	KindNotEmpty            Kind = "not_empty"
	KindLoop                Kind = "loop"
	KindNameTooLong         Kind = "name_too_long"
	KindWouldBlock          Kind = "would_block"
	KindInvalidSeek         Kind = "invalid_seek"
	KindRange               Kind = "range"
	KindIllegalByteSequence Kind = "illegal_byte_sequence"
	KindBrokenPipe          Kind = "broken_pipe"
	KindTooBig              Kind = "too_big"
	KindNotCapable          Kind = "not_capable"
	KindCrossDevice         Kind = "cross_device"
	KindFault               Kind = "fault"
)

// Error is the structured error type used by the table, the capability
// contracts and the dispatchers.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Op     string
	Path   string
	Detail string
	Handle uint32
	// HasHandle distinguishes handle 0 (stdin) from no handle.
	HasHandle bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}

	if e.HasHandle {
		b.WriteString(" handle=")
		b.WriteString(strconv.FormatUint(uint64(e.Handle), 10))
	}

	if e.Path != "" {
		b.WriteString(" path=")
		b.WriteString(strconv.Quote(e.Path))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a phase
// matches on kind alone, so the package sentinels match errors raised in
// any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrBadHandle        = &Error{Kind: KindBadHandle}
	ErrNotSupported     = &Error{Kind: KindNotSupported}
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrAlreadyExists    = &Error{Kind: KindAlreadyExists}
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied}
	ErrNoSpace          = &Error{Kind: KindNoSpace}
	ErrInterrupted      = &Error{Kind: KindInterrupted}
	ErrIo               = &Error{Kind: KindIo}
	ErrOverflow         = &Error{Kind: KindOverflow}
	ErrTooManyHandles   = &Error{Kind: KindTooManyHandles}
	ErrNotCapable       = &Error{Kind: KindNotCapable}
	ErrInvalidSeek      = &Error{Kind: KindInvalidSeek}
	ErrFault            = &Error{Kind: KindFault}
)

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the ABI function or capability operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Handle sets the guest handle involved
func (b *Builder) Handle(h uint32) *Builder {
	b.err.Handle = h
	b.err.HasHandle = true
	return b
}

// Path sets the guest path involved
func (b *Builder) Path(p string) *Builder {
	b.err.Path = p
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// BadHandle creates an unknown handle error
func BadHandle(op string, h uint32) *Error {
	return New(PhaseTable, KindBadHandle).Op(op).Handle(h).Build()
}

// NotSupported creates an unsupported operation error
func NotSupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotSupported,
		Detail: what,
	}
}

// InvalidArgument creates an invalid argument error
func InvalidArgument(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidArgument,
		Detail: detail,
	}
}

// Overflow creates a numeric conversion error
func Overflow(phase Phase, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
	}
}

// Fault creates an out-of-bounds guest memory error
func Fault(offset, length uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindFault,
		Detail: fmt.Sprintf("memory range [%d, +%d) out of bounds", offset, length),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// KindOf reports the kind of err. Errors that do not carry a kind are
// treated as opaque backend failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindIo
}

// WithOp returns err annotated with op and handle when it is one of ours
// and lacks them. An existing operation name is kept. Exit and trap
// signals pass through.
func WithOp(err error, op string, h uint32) error {
	var e *Error
	if !stderrors.As(err, &e) {
		return err
	}
	if e.Op != "" && e.HasHandle {
		return err
	}
	c := *e
	if c.Op == "" {
		c.Op = op
	}
	if !c.HasHandle {
		c.Handle = h
		c.HasHandle = true
	}
	return &c
}
