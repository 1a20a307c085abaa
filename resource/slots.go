package resource

// slots is the index-addressed entry storage behind Table. The slice index
// is the handle. Callers hold the table lock.
type slots struct {
	entries  []slot
	freeList []Handle
	live     int
}

type slot struct {
	entry Entry
	valid bool
}

func newSlots() slots {
	return slots{
		entries:  make([]slot, 0, 16),
		freeList: make([]Handle, 0, 8),
	}
}

// next returns the handle the next insert will use.
func (s *slots) next() Handle {
	for len(s.freeList) > 0 {
		h := s.freeList[len(s.freeList)-1]
		if int(h) < len(s.entries) && !s.entries[h].valid {
			return h
		}
		// Occupied again by an explicit placement.
		s.freeList = s.freeList[:len(s.freeList)-1]
	}
	return Handle(len(s.entries))
}

func (s *slots) put(h Handle, e Entry) {
	if int(h) >= len(s.entries) {
		first := Handle(len(s.entries))
		for int(h) >= len(s.entries) {
			s.entries = append(s.entries, slot{})
		}
		// Lowest gap on top of the free list.
		for gap := h; gap > first; gap-- {
			s.freeList = append(s.freeList, gap-1)
		}
	}
	if n := len(s.freeList); n > 0 && s.freeList[n-1] == h {
		s.freeList = s.freeList[:n-1]
	}
	s.entries[h] = slot{entry: e, valid: true}
	s.live++
}

func (s *slots) get(h Handle) (*Entry, bool) {
	if int(h) >= len(s.entries) || !s.entries[h].valid {
		return nil, false
	}
	return &s.entries[h].entry, true
}

func (s *slots) del(h Handle) (Entry, bool) {
	if int(h) >= len(s.entries) || !s.entries[h].valid {
		return Entry{}, false
	}
	e := s.entries[h].entry
	s.entries[h] = slot{}
	s.freeList = append(s.freeList, h)
	s.live--
	return e, true
}

func (s *slots) each(fn func(Handle, *Entry) bool) {
	for i := range s.entries {
		if s.entries[i].valid {
			if !fn(Handle(i), &s.entries[i].entry) {
				return
			}
		}
	}
}

func (s *slots) reset() []Entry {
	out := make([]Entry, 0, s.live)
	for i := range s.entries {
		if s.entries[i].valid {
			out = append(out, s.entries[i].entry)
		}
	}
	s.entries = nil
	s.freeList = nil
	s.live = 0
	return out
}
