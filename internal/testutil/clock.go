// Package testutil provides deterministic substitutes for the engine's
// clock and id generator dependencies.
package testutil

import (
	"sync"
	"time"
)

// SteppingClock returns a strictly increasing sequence of timestamps,
// advancing by a fixed step on every Now call. Tests that assert on
// time-range queries or retention cutoffs need timestamps they control.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SteppingClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewSteppingClock creates a clock whose first Now returns start.
func NewSteppingClock(start time.Time, step time.Duration) *SteppingClock {
	return &SteppingClock{next: start, step: step}
}

// Now returns the next timestamp and advances the clock by one step.
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}

// Peek returns the timestamp the next Now call will produce, without
// advancing.
func (c *SteppingClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}
