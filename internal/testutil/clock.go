// Package testutil provides deterministic test doubles shared across
// packages. Keeping them here rather than in each _test.go lets the harness
// reuse them at runtime for scenario execution.
package testutil

import (
	"sync"
	"time"
)

// Epoch is the fixed base instant scenarios and clock tests run against.
// Any stable instant would do; pinning one keeps golden traces and test
// expectations readable as offsets.
var Epoch = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

// ManualClock is a settable wall clock. Unlike the system clock it only
// moves when told to, so tests can place operations exactly at window
// boundaries.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock frozen at the given instant.
func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

// Now returns the clock's current instant.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set jumps the clock to an absolute instant. Setting the clock backwards
// is allowed; callers that care about monotonicity must not do it.
func (c *ManualClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
