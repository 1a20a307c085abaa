package preview0

import (
	"encoding/binary"
	"math"

	"github.com/wippyai/wasi-common/file"
	"github.com/wippyai/wasi-common/sched"
	"github.com/wippyai/wasi-common/snapshots"
	"github.com/wippyai/wasi-common/wasi"
)

// ModuleName is the import module preview0 guests link against.
const ModuleName = "wasi_unstable"

const (
	FilestatSize     = 56
	SubscriptionSize = 56
)

// Whence values. preview0 orders them differently from preview1.
const (
	WhenceCur uint8 = iota
	WhenceEnd
	WhenceSet
)

// ABI is the preview0 encoding.
var ABI = &snapshots.ABI{
	Errno:            ToErrno,
	Whence:           whence,
	PutFilestat:      PutFilestat,
	Subscription:     Subscription,
	FilestatSize:     FilestatSize,
	SubscriptionSize: SubscriptionSize,
}

// Version is the preview0 function set. It has no sock_accept.
var Version = snapshots.NewVersion(ModuleName, ErrnoName, ABI.Funcs()...)

func whence(w uint8) (file.Whence, bool) {
	switch w {
	case WhenceCur:
		return file.SeekCurrent, true
	case WhenceEnd:
		return file.SeekEnd, true
	case WhenceSet:
		return file.SeekStart, true
	}
	return 0, false
}

// PutFilestat encodes st as a 56 byte filestat. The link count is 32 bits
// wide and saturates.
func PutFilestat(b []byte, st file.Filestat) {
	le := binary.LittleEndian
	le.PutUint64(b, st.Device)
	le.PutUint64(b[8:], st.Inode)
	b[16] = snapshots.FileType(st.FileType)
	clear(b[17:20])
	le.PutUint32(b[20:], uint32(min(st.Nlink, math.MaxUint32)))
	le.PutUint64(b[24:], st.Size)
	le.PutUint64(b[32:], snapshots.Nanos(st.Atim))
	le.PutUint64(b[40:], snapshots.Nanos(st.Mtim))
	le.PutUint64(b[48:], snapshots.Nanos(st.Ctim))
}

// Subscription decodes a 56 byte subscription. The clock payload leads
// with an identifier that is not echoed back in events.
func Subscription(b []byte) wasi.Subscription {
	le := binary.LittleEndian
	s := wasi.Subscription{Userdata: le.Uint64(b), Type: sched.EventType(b[8])}
	switch s.Type {
	case sched.EventClock:
		s.Clock = wasi.ClockID(le.Uint32(b[24:]))
		s.Timeout = le.Uint64(b[32:])
		s.Precision = le.Uint64(b[40:])
		s.Abstime = le.Uint16(b[48:])&snapshots.SubclockAbstime != 0
	case sched.EventFdRead, sched.EventFdWrite:
		s.Fd = snapshots.FdSubscription(b)
	}
	return s
}
