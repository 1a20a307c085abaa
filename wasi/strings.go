package wasi

import (
	"math"
	"strings"

	"github.com/wippyai/wasi-common/errors"
)

// StringArray is the argument or environment vector of a context. Entries
// are immutable after Build.
type StringArray struct {
	elems []string
}

func newStringArray(what string, elems []string) (StringArray, error) {
	var size uint64
	for _, s := range elems {
		if strings.IndexByte(s, 0) >= 0 {
			return StringArray{}, errors.New(errors.PhaseConfig, errors.KindInvalidArgument).
				Detail("%s %q contains a NUL byte", what, s).Build()
		}
		size += uint64(len(s)) + 1
	}
	if size > math.MaxUint32 || uint64(len(elems)) > math.MaxUint32 {
		return StringArray{}, errors.Overflow(errors.PhaseConfig, size, what+" buffer size")
	}
	return StringArray{elems: append([]string(nil), elems...)}, nil
}

// Len returns the number of entries.
func (a StringArray) Len() uint32 { return uint32(len(a.elems)) }

// Elements returns the entries. The slice must not be modified.
func (a StringArray) Elements() []string { return a.elems }

// Size returns the bytes needed to store every entry NUL-terminated.
func (a StringArray) Size() uint32 {
	var n uint32
	for _, s := range a.elems {
		n += uint32(len(s)) + 1
	}
	return n
}
