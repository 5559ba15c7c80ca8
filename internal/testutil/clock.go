package testutil

import "sync"

// DeterministicClock is a logical clock that stamps trace events.
//
// Events recorded by one run get sequence numbers 1, 2, 3... in delivery
// order, so a rerun of the same scenario produces an identical trace. Reset
// rewinds the clock for reuse between runs.
//
// Thread-safety: all methods are safe for concurrent use. Hot sources
// deliver from their own goroutine while the harness reads Current.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock at 0. The first Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next advances the clock and returns the new sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last issued sequence number.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
