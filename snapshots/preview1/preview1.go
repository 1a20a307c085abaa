package preview1

import (
	"encoding/binary"

	"github.com/wippyai/wasi-common/file"
	"github.com/wippyai/wasi-common/sched"
	"github.com/wippyai/wasi-common/snapshots"
	"github.com/wippyai/wasi-common/wasi"
)

// ModuleName is the import module preview1 guests link against.
const ModuleName = "wasi_snapshot_preview1"

const (
	FilestatSize     = 64
	SubscriptionSize = 48
)

// Whence values.
const (
	WhenceSet uint8 = iota
	WhenceCur
	WhenceEnd
)

// ABI is the preview1 encoding.
var ABI = &snapshots.ABI{
	Errno:            ToErrno,
	Whence:           whence,
	PutFilestat:      PutFilestat,
	Subscription:     Subscription,
	FilestatSize:     FilestatSize,
	SubscriptionSize: SubscriptionSize,
}

// Version is the preview1 function set.
var Version = snapshots.NewVersion(ModuleName, ErrnoName, append(ABI.Funcs(), ABI.SockAccept())...)

func whence(w uint8) (file.Whence, bool) {
	switch w {
	case WhenceSet:
		return file.SeekStart, true
	case WhenceCur:
		return file.SeekCurrent, true
	case WhenceEnd:
		return file.SeekEnd, true
	}
	return 0, false
}

// PutFilestat encodes st as a 64 byte filestat.
func PutFilestat(b []byte, st file.Filestat) {
	le := binary.LittleEndian
	le.PutUint64(b, st.Device)
	le.PutUint64(b[8:], st.Inode)
	b[16] = snapshots.FileType(st.FileType)
	clear(b[17:24])
	le.PutUint64(b[24:], st.Nlink)
	le.PutUint64(b[32:], st.Size)
	le.PutUint64(b[40:], snapshots.Nanos(st.Atim))
	le.PutUint64(b[48:], snapshots.Nanos(st.Mtim))
	le.PutUint64(b[56:], snapshots.Nanos(st.Ctim))
}

// Subscription decodes a 48 byte subscription.
func Subscription(b []byte) wasi.Subscription {
	le := binary.LittleEndian
	s := wasi.Subscription{Userdata: le.Uint64(b), Type: sched.EventType(b[8])}
	switch s.Type {
	case sched.EventClock:
		s.Clock = wasi.ClockID(le.Uint32(b[16:]))
		s.Timeout = le.Uint64(b[24:])
		s.Precision = le.Uint64(b[32:])
		s.Abstime = le.Uint16(b[40:])&snapshots.SubclockAbstime != 0
	case sched.EventFdRead, sched.EventFdWrite:
		s.Fd = snapshots.FdSubscription(b)
	}
	return s
}
