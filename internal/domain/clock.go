package domain

import (
	"sync"
	"time"
)

// Stamp is the ordering key for ledger writes. RecordedAt alone is not
// enough: the host clock may stall or regress, and reconciliation drift
// detection needs a total order over versions written by this process.
type Stamp struct {
	RecordedAt  time.Time
	RecordedSeq int64
}

// After reports whether s is strictly later than other.
func (s Stamp) After(other Stamp) bool {
	if s.RecordedAt.Equal(other.RecordedAt) {
		return s.RecordedSeq > other.RecordedSeq
	}
	return s.RecordedAt.After(other.RecordedAt)
}

// Clock issues strictly increasing stamps. When the wall clock repeats or
// regresses, the previous timestamp is reused and the sequence counter
// advances instead.
type Clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
	seq  int64
}

// NewClock creates a Clock backed by the system clock.
func NewClock() *Clock {
	return &Clock{now: func() time.Time { return time.Now().UTC() }}
}

// NewClockAt creates a Clock backed by a custom time source, for tests.
func NewClockAt(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Next returns the next stamp.
func (c *Clock) Next() Stamp {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.now().UTC()
	if !n.After(c.last) {
		c.seq++
		return Stamp{RecordedAt: c.last, RecordedSeq: c.seq}
	}
	c.last = n
	c.seq = 0
	return Stamp{RecordedAt: n, RecordedSeq: 0}
}
