package kygeo

// Range is a half-open byte interval [Start, End) over normalized text.
type Range struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the number of bytes covered by r.
func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Overlaps reports whether r and o share at least one byte.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

// OutOfStateWindow is the width in characters of the window centred on a
// match that is searched for out-of-state names.
const OutOfStateWindow = 150

// window returns the OutOfStateWindow-wide range centred on r, clamped to
// [0, limit).
func (r Range) window(limit int) Range {
	centre := (r.Start + r.End) / 2
	w := Range{Start: centre - OutOfStateWindow/2, End: centre + OutOfStateWindow/2}
	if w.Start < 0 {
		w.Start = 0
	}
	if w.End > limit {
		w.End = limit
	}
	return w
}

// rangeSet holds the ranges claimed during one detection call.
// Claimed ranges never overlap each other.
type rangeSet []Range

func (s rangeSet) overlaps(r Range) bool {
	for _, c := range s {
		if c.Overlaps(r) {
			return true
		}
	}
	return false
}

// claim records r unless it overlaps an existing claim. It reports whether r
// was recorded.
func (s *rangeSet) claim(r Range) bool {
	if s.overlaps(r) {
		return false
	}
	*s = append(*s, r)
	return true
}
