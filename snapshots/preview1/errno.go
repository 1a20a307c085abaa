package preview1

import (
	"github.com/wippyai/wasi-common/errors"
)

// Errno is a preview1 error code. Zero is success.
type Errno = uint32

const (
	ErrnoSuccess Errno = iota
	Errno2big
	ErrnoAcces
	ErrnoAddrinuse
	ErrnoAddrnotavail
	ErrnoAfnosupport
	ErrnoAgain
	ErrnoAlready
	ErrnoBadf
	ErrnoBadmsg
	ErrnoBusy
	ErrnoCanceled
	ErrnoChild
	ErrnoConnaborted
	ErrnoConnrefused
	ErrnoConnreset
	ErrnoDeadlk
	ErrnoDestaddrreq
	ErrnoDom
	ErrnoDquot
	ErrnoExist
	ErrnoFault
	ErrnoFbig
	ErrnoHostunreach
	ErrnoIdrm
	ErrnoIlseq
	ErrnoInprogress
	ErrnoIntr
	ErrnoInval
	ErrnoIo
	ErrnoIsconn
	ErrnoIsdir
	ErrnoLoop
	ErrnoMfile
	ErrnoMlink
	ErrnoMsgsize
	ErrnoMultihop
	ErrnoNametoolong
	ErrnoNetdown
	ErrnoNetreset
	ErrnoNetunreach
	ErrnoNfile
	ErrnoNobufs
	ErrnoNodev
	ErrnoNoent
	ErrnoNoexec
	ErrnoNolck
	ErrnoNolink
	ErrnoNomem
	ErrnoNomsg
	ErrnoNoprotoopt
	ErrnoNospc
	ErrnoNosys
	ErrnoNotconn
	ErrnoNotdir
	ErrnoNotempty
	ErrnoNotrecoverable
	ErrnoNotsock
	ErrnoNotsup
	ErrnoNotty
	ErrnoNxio
	ErrnoOverflow
	ErrnoOwnerdead
	ErrnoPerm
	ErrnoPipe
	ErrnoProto
	ErrnoProtonosupport
	ErrnoPrototype
	ErrnoRange
	ErrnoRofs
	ErrnoSpipe
	ErrnoSrch
	ErrnoStale
	ErrnoTimedout
	ErrnoTxtbsy
	ErrnoXdev
	ErrnoNotcapable
)

var errnoNames = [...]string{
	"ESUCCESS", "E2BIG", "EACCES", "EADDRINUSE", "EADDRNOTAVAIL", "EAFNOSUPPORT",
	"EAGAIN", "EALREADY", "EBADF", "EBADMSG", "EBUSY", "ECANCELED", "ECHILD",
	"ECONNABORTED", "ECONNREFUSED", "ECONNRESET", "EDEADLK", "EDESTADDRREQ",
	"EDOM", "EDQUOT", "EEXIST", "EFAULT", "EFBIG", "EHOSTUNREACH", "EIDRM",
	"EILSEQ", "EINPROGRESS", "EINTR", "EINVAL", "EIO", "EISCONN", "EISDIR",
	"ELOOP", "EMFILE", "EMLINK", "EMSGSIZE", "EMULTIHOP", "ENAMETOOLONG",
	"ENETDOWN", "ENETRESET", "ENETUNREACH", "ENFILE", "ENOBUFS", "ENODEV",
	"ENOENT", "ENOEXEC", "ENOLCK", "ENOLINK", "ENOMEM", "ENOMSG", "ENOPROTOOPT",
	"ENOSPC", "ENOSYS", "ENOTCONN", "ENOTDIR", "ENOTEMPTY", "ENOTRECOVERABLE",
	"ENOTSOCK", "ENOTSUP", "ENOTTY", "ENXIO", "EOVERFLOW", "EOWNERDEAD", "EPERM",
	"EPIPE", "EPROTO", "EPROTONOSUPPORT", "EPROTOTYPE", "ERANGE", "EROFS",
	"ESPIPE", "ESRCH", "ESTALE", "ETIMEDOUT", "ETXTBSY", "EXDEV", "ENOTCAPABLE",
}

// ErrnoName returns the POSIX name of errno, e.g. "EBADF".
func ErrnoName(errno Errno) string {
	if int(errno) < len(errnoNames) {
		return errnoNames[errno]
	}
	return "unknown"
}

var kindErrno = map[errors.Kind]Errno{
	errors.KindBadHandle:           ErrnoBadf,
	errors.KindNotSupported:        ErrnoNotsup,
	errors.KindInvalidArgument:     ErrnoInval,
	errors.KindNotFound:            ErrnoNoent,
	errors.KindAlreadyExists:       ErrnoExist,
	errors.KindPermissionDenied:    ErrnoPerm,
	errors.KindNoSpace:             ErrnoNospc,
	errors.KindInterrupted:         ErrnoIntr,
	errors.KindIo:                  ErrnoIo,
	errors.KindOverflow:            ErrnoOverflow,
	errors.KindTooManyHandles:      ErrnoMfile,
	errors.KindNotDir:              ErrnoNotdir,
	errors.KindIsDir:               ErrnoIsdir,
	errors.KindNotEmpty:            ErrnoNotempty,
	errors.KindLoop:                ErrnoLoop,
	errors.KindNameTooLong:         ErrnoNametoolong,
	errors.KindWouldBlock:          ErrnoAgain,
	errors.KindInvalidSeek:         ErrnoSpipe,
	errors.KindRange:               ErrnoRange,
	errors.KindIllegalByteSequence: ErrnoIlseq,
	errors.KindBrokenPipe:          ErrnoPipe,
	errors.KindTooBig:              Errno2big,
	errors.KindNotCapable:          ErrnoNotcapable,
	errors.KindCrossDevice:         ErrnoXdev,
	errors.KindFault:               ErrnoFault,
}

// ToErrno maps err to a preview1 errno. Exit and trap signals are not
// errnos: they come back as the second result for the host to raise.
func ToErrno(err error) (Errno, error) {
	if err == nil {
		return ErrnoSuccess, nil
	}
	if errors.IsTerminal(err) {
		return 0, err
	}
	if errno, ok := kindErrno[errors.KindOf(err)]; ok {
		return errno, nil
	}
	return ErrnoIo, nil
}
