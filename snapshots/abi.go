package snapshots

import (
	"encoding/binary"
	"time"

	"github.com/wippyai/wasi-common/file"
	"github.com/wippyai/wasi-common/resource"
	"github.com/wippyai/wasi-common/sched"
	"github.com/wippyai/wasi-common/wasi"
)

// Record sizes shared by both snapshots.
const (
	FdstatSize  = 24
	PrestatSize = 8
	DirentSize  = 24
	EventSize   = 32
)

// ABI is the per-snapshot encoding that the shared handlers are built on.
// Everything a snapshot encodes differently is a field here.
type ABI struct {
	// Errno converts a core error into the snapshot's errno. Exit and trap
	// signals are returned as the error instead.
	Errno func(err error) (uint32, error)
	// Whence decodes the fd_seek whence argument.
	Whence func(w uint8) (file.Whence, bool)
	// PutFilestat encodes st into a FilestatSize buffer.
	PutFilestat func(b []byte, st file.Filestat)
	// Subscription decodes one SubscriptionSize record.
	Subscription func(b []byte) wasi.Subscription

	FilestatSize     uint32
	SubscriptionSize uint32
}

func (a *ABI) fail(err error) (uint32, error) {
	if err == nil {
		return 0, nil
	}
	return a.Errno(err)
}

func handle(p uint64) resource.Handle { return resource.Handle(uint32(p)) }

// Nanos encodes t as a timestamp. The zero time encodes as 0.
func Nanos(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	n := t.UnixNano()
	if n < 0 {
		return 0
	}
	return uint64(n)
}

// FileType encodes t. Pipes have no encoding of their own.
func FileType(t file.FileType) uint8 {
	if t > file.TypeSymbolicLink {
		return uint8(file.TypeUnknown)
	}
	return uint8(t)
}

func putFdstat(b []byte, st wasi.Fdstat) {
	b[0] = FileType(st.FileType)
	binary.LittleEndian.PutUint16(b[2:], uint16(st.Flags))
	binary.LittleEndian.PutUint64(b[8:], st.RightsBase)
	binary.LittleEndian.PutUint64(b[16:], st.RightsInheriting)
}

func putPrestat(b []byte, nameLen uint32) {
	// Tag 0: directory.
	b[0] = 0
	binary.LittleEndian.PutUint32(b[4:], nameLen)
}

func putDirent(b []byte, next, ino uint64, nameLen uint32, typ uint8) {
	binary.LittleEndian.PutUint64(b, next)
	binary.LittleEndian.PutUint64(b[8:], ino)
	binary.LittleEndian.PutUint32(b[16:], nameLen)
	b[20] = typ
}

func (a *ABI) putEvent(b []byte, ev sched.Event) error {
	errno, err := a.fail(ev.Err)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, ev.Userdata)
	binary.LittleEndian.PutUint16(b[8:], uint16(errno))
	b[10] = byte(ev.Type)
	binary.LittleEndian.PutUint64(b[16:], ev.NBytes)
	return nil
}
