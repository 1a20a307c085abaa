package snapshots

import (
	"github.com/wippyai/wasi-common/dir"
	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/file"
	"github.com/wippyai/wasi-common/wasi"
)

// Flag encodings below are identical in preview0 and preview1.

const (
	oflagCreat uint16 = 1 << iota
	oflagDirectory
	oflagExcl
	oflagTrunc
)

// OpenFlags decodes path_open oflags.
func OpenFlags(oflags uint16) (dir.OpenFlags, error) {
	if oflags&^(oflagCreat|oflagDirectory|oflagExcl|oflagTrunc) != 0 {
		return dir.OpenFlags{}, errors.New(errors.PhaseDecode, errors.KindInvalidArgument).
			Op("path_open").Detail("unknown oflags %#x", oflags).Build()
	}
	return dir.OpenFlags{
		Create:    oflags&oflagCreat != 0,
		Directory: oflags&oflagDirectory != 0,
		Exclusive: oflags&oflagExcl != 0,
		Truncate:  oflags&oflagTrunc != 0,
	}, nil
}

const fdflagsMask = file.FlagAppend | file.FlagDsync | file.FlagNonblock | file.FlagRsync | file.FlagSync

// FdFlags decodes fdflags. The bit layout matches file.FdFlags.
func FdFlags(op string, flags uint16) (file.FdFlags, error) {
	f := file.FdFlags(flags)
	if f&^fdflagsMask != 0 {
		return 0, errors.New(errors.PhaseDecode, errors.KindInvalidArgument).
			Op(op).Detail("unknown fdflags %#x", flags).Build()
	}
	return f, nil
}

// Follow decodes lookupflags: bit 0 follows a final symlink.
func Follow(lookupflags uint32) bool {
	return lookupflags&1 != 0
}

// FstFlags decodes set_times flags; unknown bits are rejected by the core.
func FstFlags(flags uint16) wasi.FstFlags {
	return wasi.FstFlags(flags)
}

// Advice decodes fd_advise advice.
func Advice(advice uint32) (file.Advice, error) {
	if advice > uint32(file.AdviceNoReuse) {
		return 0, errors.New(errors.PhaseDecode, errors.KindInvalidArgument).
			Op("fd_advise").Detail("unknown advice %d", advice).Build()
	}
	return file.Advice(advice), nil
}

// Subclock flag: the timeout is an absolute reading of the clock.
const SubclockAbstime uint16 = 1
