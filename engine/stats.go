package engine

import (
	"sort"
	"sync"
	"time"
)

// FuncStats is the call summary of one host function.
type FuncStats struct {
	Module string
	Func   string
	Calls  uint64
	// Errors counts calls that returned a non-zero errno.
	Errors uint64
	// Signals counts exits and traps.
	Signals uint64
	Total   time.Duration
}

// Stats aggregates host function calls. It is safe for concurrent use.
type Stats struct {
	funcs map[string]*FuncStats
	mu    sync.Mutex
}

// NewStats returns an empty aggregate.
func NewStats() *Stats {
	return &Stats{funcs: make(map[string]*FuncStats)}
}

func (s *Stats) record(module, fn string, errno uint32, err error, d time.Duration) {
	key := module + "." + fn
	s.mu.Lock()
	defer s.mu.Unlock()
	fs, ok := s.funcs[key]
	if !ok {
		fs = &FuncStats{Module: module, Func: fn}
		s.funcs[key] = fs
	}
	fs.Calls++
	fs.Total += d
	switch {
	case err != nil:
		fs.Signals++
	case errno != 0:
		fs.Errors++
	}
}

// Snapshot returns a copy of the summaries, most called first.
func (s *Stats) Snapshot() []FuncStats {
	s.mu.Lock()
	out := make([]FuncStats, 0, len(s.funcs))
	for _, fs := range s.funcs {
		out = append(out, *fs)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Calls != out[j].Calls {
			return out[i].Calls > out[j].Calls
		}
		if out[i].Module != out[j].Module {
			return out[i].Module < out[j].Module
		}
		return out[i].Func < out[j].Func
	})
	return out
}
