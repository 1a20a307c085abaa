package resource

import "strings"

// Rights is the legacy (base, inheriting) rights pair. Bit positions are
// shared by preview0 and preview1.
type Rights struct {
	Base       uint64
	Inheriting uint64
}

const (
	RightFdDatasync uint64 = 1 << iota
	RightFdRead
	RightFdSeek
	RightFdFdstatSetFlags
	RightFdSync
	RightFdTell
	RightFdWrite
	RightFdAdvise
	RightFdAllocate
	RightPathCreateDirectory
	RightPathCreateFile
	RightPathLinkSource
	RightPathLinkTarget
	RightPathOpen
	RightFdReaddir
	RightPathReadlink
	RightPathRenameSource
	RightPathRenameTarget
	RightPathFilestatGet
	RightPathFilestatSetSize
	RightPathFilestatSetTimes
	RightFdFilestatGet
	RightFdFilestatSetSize
	RightFdFilestatSetTimes
	RightPathSymlink
	RightPathRemoveDirectory
	RightPathUnlinkFile
	RightPollFdReadwrite
	RightSockShutdown
	RightSockAccept
)

const (
	// RightsAll is every defined right.
	RightsAll = RightSockAccept<<1 - 1

	// RightsFile is what a regular file may carry.
	RightsFile = RightFdDatasync | RightFdRead | RightFdSeek | RightFdFdstatSetFlags |
		RightFdSync | RightFdTell | RightFdWrite | RightFdAdvise | RightFdAllocate |
		RightFdFilestatGet | RightFdFilestatSetSize | RightFdFilestatSetTimes |
		RightPollFdReadwrite

	// RightsDir is what a directory may carry as base rights.
	RightsDir = RightFdFdstatSetFlags | RightFdSync | RightFdAdvise |
		RightPathCreateDirectory | RightPathCreateFile | RightPathLinkSource |
		RightPathLinkTarget | RightPathOpen | RightFdReaddir | RightPathReadlink |
		RightPathRenameSource | RightPathRenameTarget | RightPathFilestatGet |
		RightPathFilestatSetSize | RightPathFilestatSetTimes | RightFdFilestatGet |
		RightFdFilestatSetTimes | RightPathSymlink | RightPathRemoveDirectory |
		RightPathUnlinkFile

	// RightsFileWrite are the file rights that modify contents.
	RightsFileWrite = RightFdWrite | RightFdDatasync | RightFdAllocate | RightFdFilestatSetSize

	// RightsStream is what stdio and pipes carry.
	RightsStream = RightFdRead | RightFdWrite | RightFdFdstatSetFlags |
		RightFdFilestatGet | RightPollFdReadwrite
)

// FileRights returns the default rights of a freshly opened file.
func FileRights() *Rights {
	return &Rights{Base: RightsFile}
}

// DirRights returns the default rights of a preopened or opened directory.
func DirRights() *Rights {
	return &Rights{Base: RightsDir, Inheriting: RightsDir | RightsFile}
}

// ReadOnlyDirRights returns the rights of a directory whose children may
// only be opened for reading.
func ReadOnlyDirRights() *Rights {
	return &Rights{Base: RightsDir, Inheriting: (RightsDir | RightsFile) &^ RightsFileWrite}
}

// StreamRights returns the default rights of a stdio stream.
func StreamRights() *Rights {
	return &Rights{Base: RightsStream}
}

// Has reports whether the base rights include every bit in want. A nil
// receiver is unrestricted.
func (r *Rights) Has(want uint64) bool {
	if r == nil {
		return true
	}
	return r.Base&want == want
}

// Narrow reports whether (base, inheriting) is a subset of r.
func (r *Rights) Narrow(base, inheriting uint64) bool {
	if r == nil {
		return true
	}
	return base&^r.Base == 0 && inheriting&^r.Inheriting == 0
}

// Derive returns the rights a child opened through r may carry given the
// requested rights.
func (r *Rights) Derive(base, inheriting uint64) *Rights {
	if r == nil {
		return &Rights{Base: base, Inheriting: inheriting}
	}
	return &Rights{Base: base & r.Inheriting, Inheriting: inheriting & r.Inheriting}
}

var rightNames = []string{
	"fd_datasync", "fd_read", "fd_seek", "fd_fdstat_set_flags", "fd_sync",
	"fd_tell", "fd_write", "fd_advise", "fd_allocate", "path_create_directory",
	"path_create_file", "path_link_source", "path_link_target", "path_open",
	"fd_readdir", "path_readlink", "path_rename_source", "path_rename_target",
	"path_filestat_get", "path_filestat_set_size", "path_filestat_set_times",
	"fd_filestat_get", "fd_filestat_set_size", "fd_filestat_set_times",
	"path_symlink", "path_remove_directory", "path_unlink_file",
	"poll_fd_readwrite", "sock_shutdown", "sock_accept",
}

// RightName returns the ABI name of a single right bit.
func RightName(bit uint64) string {
	for i, n := range rightNames {
		if bit == 1<<i {
			return n
		}
	}
	return "unknown"
}

// FormatRights renders a rights mask as a |-separated list.
func FormatRights(mask uint64) string {
	var b strings.Builder
	for i, n := range rightNames {
		if mask&(1<<i) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		b.WriteString(n)
	}
	return b.String()
}
