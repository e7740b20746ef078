// SPDX-License-Identifier: Apache-2.0

package memlifo

// Stats is a snapshot of a stack's state and lifetime counters.
type Stats struct {
	Depth     int    // open frames
	Len       int    // bytes in use, alignment padding included
	Cap       int    // bytes held in chunks
	Peak      int    // high-water mark of Len
	Remaining int    // bytes the topmost frame can use without a new chunk
	Chunks    int    // chunks currently held
	Acquired  int    // chunks acquired over the stack's lifetime
	Freed     int    // chunks returned to the provider over the stack's lifetime
	Provider  string // provider name
	Released  bool   // Release has been called
}

// Utilization returns Len/Cap, or 0 when the stack holds no memory.
func (st Stats) Utilization() float64 {
	if st.Cap == 0 {
		return 0
	}
	return float64(st.Len) / float64(st.Cap)
}

// Stats satisfies the Stack interface.
func (s *frameStack) Stats() Stats {
	return Stats{
		Depth:     len(s.frames),
		Len:       s.used,
		Cap:       s.capacity,
		Peak:      s.peak,
		Remaining: s.Remaining(),
		Chunks:    s.chunks,
		Acquired:  s.acquiredTotal,
		Freed:     s.releasedTotal,
		Provider:  s.opts.provider.Name(),
		Released:  s.closed,
	}
}
