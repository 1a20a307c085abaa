package file

import "time"

// FileType classifies a resource. Values are shared by both snapshots.
type FileType uint8

const (
	TypeUnknown FileType = iota
	TypeBlockDevice
	TypeCharacterDevice
	TypeDirectory
	TypeRegularFile
	TypeSocketDgram
	TypeSocketStream
	TypeSymbolicLink
	// TypePipe has no ABI encoding of its own and is reported as unknown.
	TypePipe
)

var fileTypeNames = [...]string{
	"unknown", "block_device", "character_device", "directory",
	"regular_file", "socket_dgram", "socket_stream", "symbolic_link", "pipe",
}

func (t FileType) String() string {
	if int(t) < len(fileTypeNames) {
		return fileTypeNames[t]
	}
	return "invalid"
}

// FdFlags are the per-descriptor status flags.
type FdFlags uint16

const (
	FlagAppend FdFlags = 1 << iota
	FlagDsync
	FlagNonblock
	FlagRsync
	FlagSync
)

// Has reports whether every flag in f2 is set.
func (f FdFlags) Has(f2 FdFlags) bool { return f&f2 == f2 }

// Advice is a posix_fadvise style access hint.
type Advice uint8

const (
	AdviceNormal Advice = iota
	AdviceSequential
	AdviceRandom
	AdviceWillNeed
	AdviceDontNeed
	AdviceNoReuse
)

// Whence is the base of a seek. The numeric encoding differs between
// snapshots; dispatchers translate into these values.
type Whence uint8

const (
	SeekStart Whence = iota
	SeekCurrent
	SeekEnd
)

// Positioning declares which position models a backend implements.
type Positioning uint8

const (
	// PositionCursor means Read, Write and Seek use a backend cursor.
	PositionCursor Positioning = 1 << iota
	// PositionExplicit means ReadAt and WriteAt accept an offset and leave
	// any cursor untouched.
	PositionExplicit
)

// Stream is what pipes and character devices report.
const Stream Positioning = PositionCursor

// Seekable is what regular files normally report.
const Seekable = PositionCursor | PositionExplicit

// Filestat is the version-neutral attribute record. Encoders narrow it per
// snapshot.
type Filestat struct {
	Atim     time.Time
	Mtim     time.Time
	Ctim     time.Time
	Device   uint64
	Inode    uint64
	Nlink    uint64
	Size     uint64
	FileType FileType
}

// SystemTimeSpec is a timestamp update: either the current time or an
// explicit instant.
type SystemTimeSpec struct {
	Time time.Time
	Now  bool
}

// NowSpec returns a spec meaning "the current time".
func NowSpec() *SystemTimeSpec { return &SystemTimeSpec{Now: true} }

// At returns a spec for an explicit instant.
func At(t time.Time) *SystemTimeSpec { return &SystemTimeSpec{Time: t} }

// Resolve returns the instant the spec stands for, or ok=false for a nil
// spec (leave unchanged).
func (s *SystemTimeSpec) Resolve(now func() time.Time) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	if s.Now {
		return now(), true
	}
	return s.Time, true
}
