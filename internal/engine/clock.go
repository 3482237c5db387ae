package engine

import (
	"sync/atomic"
	"time"
)

// Clock supplies the wall-clock reading that phase derivation runs against.
// Production uses SystemClock; tests substitute a manual clock so window
// boundaries can be probed exactly.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the operating system clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Sequencer issues the strictly increasing sequence numbers that stamp
// audit entries. Ordering uses these, never wall time, so the trace has a
// total order even when a manual clock stands still.
//
// Thread-safety: safe for concurrent use (atomic operations).
type Sequencer struct {
	seq atomic.Int64
}

// NewSequencer creates a sequencer starting at 0; the first Next returns 1.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// NewSequencerAt creates a sequencer resuming from a specific value, used
// on startup to continue from the highest persisted audit seq.
func NewSequencerAt(start int64) *Sequencer {
	s := &Sequencer{}
	s.seq.Store(start)
	return s
}

// Next returns the next sequence number and advances the sequencer.
// Each call returns a unique, increasing value.
func (s *Sequencer) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the current sequence number without advancing.
func (s *Sequencer) Current() int64 {
	return s.seq.Load()
}
