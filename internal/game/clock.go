package game

import (
	"sync"
	"time"
)

// Clock issues strictly increasing sequence numbers and unique timestamps.
// Wall-clock ties are possible under rapid submission, so price-time
// tie-breaking always uses the sequence number; the timestamp is nudged
// forward by a nanosecond whenever the wall clock stalls so that trade
// times stay unique and monotonic.
type Clock struct {
	mu   sync.Mutex
	seq  int64
	last time.Time
}

func NewClock() *Clock {
	return &Clock{}
}

// Tick returns the next sequence number together with a unique UTC timestamp.
func (c *Clock) Tick() (int64, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	now := time.Now().UTC()
	if !now.After(c.last) {
		now = c.last.Add(time.Nanosecond)
	}
	c.last = now
	return c.seq, now
}
