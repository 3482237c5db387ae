package auction

import "time"

// Phase is the auction lifecycle position. Pending, Open, and Closed are
// derived from the clock; only Settled corresponds to stored state.
type Phase int

const (
	PhasePending Phase = iota
	PhaseOpen
	PhaseClosed
	PhaseSettled
)

// String returns the phase name used in errors, logs, and CLI output.
func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseOpen:
		return "open"
	case PhaseClosed:
		return "closed"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// PhaseAt derives the record's phase at the given instant.
//
// The window is half-open: bids are accepted from StartTime inclusive up to
// but not including EndTime. A settled record is terminal regardless of the
// clock, which is what makes finalization idempotent.
func (r *Record) PhaseAt(now time.Time) Phase {
	if r.Settled {
		return PhaseSettled
	}
	if now.Before(r.StartTime) {
		return PhasePending
	}
	if now.Before(r.EndTime) {
		return PhaseOpen
	}
	return PhaseClosed
}
