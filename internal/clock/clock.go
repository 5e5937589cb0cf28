// Package clock abstracts the time source used for resource timestamps.
package clock

import (
	"sync"
	"time"
)

// Clock provides the current time. Timestamps written to the metadata
// document are always taken from a Clock so tests can pin them.
type Clock interface {
	Now() time.Time
}

// RealClock returns the system time in UTC, truncated to milliseconds so it
// round-trips through JSON unchanged.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// FakeClock returns a controlled time. When step is non-zero every call to
// Now advances the clock by step afterwards, so consecutive timestamps differ.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

// NewFakeClock creates a FakeClock frozen at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t}
}

// NewSteppingClock creates a FakeClock that advances by step on every read.
func NewSteppingClock(t time.Time, step time.Duration) *FakeClock {
	return &FakeClock{current: t, step: step}
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	c.current = c.current.Add(c.step)
	return now
}

// Set moves the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}
