package journal

import "sync/atomic"

// clock hands out strictly increasing journal sequence numbers.
//
// Thread-safety: clock is safe for concurrent use (atomic operations).
type clock struct {
	seq atomic.Int64
}

// newClockAt creates a clock whose next value is start+1.
// Used on Open to resume after the last stored row.
func newClockAt(start int64) *clock {
	c := &clock{}
	c.seq.Store(start)
	return c
}

// next returns the next sequence number.
func (c *clock) next() int64 {
	return c.seq.Add(1)
}

// current returns the last sequence number handed out.
func (c *clock) current() int64 {
	return c.seq.Load()
}
