package auction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 = t0.Add(100 * time.Second)
)

func newTestRecord(t *testing.T) *Record {
	t.Helper()
	rec, err := NewRecord("art-1", "alice", "painting-7", 100, 10, t0, t1)
	require.NoError(t, err)
	return rec
}

func TestPhaseAt_Derived(t *testing.T) {
	rec := newTestRecord(t)

	assert.Equal(t, PhasePending, rec.PhaseAt(t0.Add(-time.Second)))
	assert.Equal(t, PhaseOpen, rec.PhaseAt(t0), "window start is inclusive")
	assert.Equal(t, PhaseOpen, rec.PhaseAt(t1.Add(-time.Nanosecond)))
	assert.Equal(t, PhaseClosed, rec.PhaseAt(t1), "window end is exclusive")
	assert.Equal(t, PhaseClosed, rec.PhaseAt(t1.Add(time.Hour)))
}

func TestPhaseAt_SettledIsTerminal(t *testing.T) {
	rec := newTestRecord(t)
	rec.MarkSettled("anyone")

	// Settled wins regardless of where the clock sits.
	assert.Equal(t, PhaseSettled, rec.PhaseAt(t0.Add(-time.Second)))
	assert.Equal(t, PhaseSettled, rec.PhaseAt(t0.Add(time.Second)))
	assert.Equal(t, PhaseSettled, rec.PhaseAt(t1.Add(time.Hour)))
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "pending", PhasePending.String())
	assert.Equal(t, "open", PhaseOpen.String())
	assert.Equal(t, "closed", PhaseClosed.String())
	assert.Equal(t, "settled", PhaseSettled.String())
	assert.Equal(t, "unknown", Phase(42).String())
}

func TestNewRecord_Validation(t *testing.T) {
	_, err := NewRecord("a", "alice", "x", 100, 10, t1, t0)
	assert.Equal(t, CodeInvalidWindow, CodeOf(err), "start after end")

	_, err = NewRecord("a", "alice", "x", 100, 10, t0, t0)
	assert.Equal(t, CodeInvalidWindow, CodeOf(err), "zero-length window")

	_, err = NewRecord("", "alice", "x", 100, 10, t0, t1)
	assert.Equal(t, CodeInvalidParameters, CodeOf(err), "empty id")

	_, err = NewRecord("a", "alice", "x", -1, 10, t0, t1)
	assert.Equal(t, CodeInvalidParameters, CodeOf(err), "negative reserve")

	_, err = NewRecord("a", "alice", "x", 100, -1, t0, t1)
	assert.Equal(t, CodeInvalidParameters, CodeOf(err), "negative increment")
}

func TestNewRecord_ReserveFloor(t *testing.T) {
	rec := newTestRecord(t)

	assert.Equal(t, int64(100), rec.HighestBid, "reserve price seeds the floor")
	assert.False(t, rec.HighestBidder.Valid, "floor is not a real bid")
	assert.Equal(t, int64(0), rec.EscrowedAmount)
	assert.Equal(t, AccountID("auction/art-1"), rec.CustodyAccount())
}
