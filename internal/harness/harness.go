package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/gavel/internal/audit"
	"github.com/roach88/gavel/internal/auction"
	"github.com/roach88/gavel/internal/engine"
	"github.com/roach88/gavel/internal/scenario"
	"github.com/roach88/gavel/internal/store"
	"github.com/roach88/gavel/internal/testutil"
)

// Result is the report from one scenario run.
type Result struct {
	Scenario string
	Record   *auction.Record
	Trace    []audit.Entry
	Failures []string
}

// Passed reports whether every step matched its expectation and every
// assertion held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

func (r *Result) failf(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// Run executes the scenario from a clean slate: in-memory store, manual
// clock at the epoch. Auction creation happens before any step, with the
// window placed at the scenario's offsets from the epoch.
func Run(ctx context.Context, sc *scenario.Scenario) (*Result, error) {
	db, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	clock := testutil.NewManualClock(testutil.Epoch)
	eng, err := engine.New(ctx, db, clock)
	if err != nil {
		return nil, fmt.Errorf("starting engine: %w", err)
	}

	for _, acc := range sc.Accounts {
		if err := eng.Fund(ctx, auction.AccountID(acc.Account), acc.Balance); err != nil {
			return nil, fmt.Errorf("funding %s: %w", acc.Account, err)
		}
	}
	for _, as := range sc.Assets {
		if err := eng.SeedAsset(ctx, auction.AssetID(as.Asset), auction.AccountID(as.Owner)); err != nil {
			return nil, fmt.Errorf("seeding asset %s: %w", as.Asset, err)
		}
	}

	if _, err := eng.CreateAuction(ctx, engine.CreateParams{
		ID:           sc.Auction.ID,
		Seller:       auction.AccountID(sc.Auction.Seller),
		Asset:        auction.AssetID(sc.Auction.Asset),
		ReservePrice: sc.Auction.ReservePrice,
		BidIncrement: sc.Auction.BidIncrement,
		Start:        offsetTime(sc.Auction.StartOffset),
		End:          offsetTime(sc.Auction.EndOffset),
	}); err != nil {
		return nil, fmt.Errorf("creating auction: %w", err)
	}

	res := &Result{Scenario: sc.Name}
	for i, step := range sc.Steps {
		clock.Set(offsetTime(step.At))

		var opErr error
		switch step.Op {
		case scenario.OpBid:
			_, opErr = eng.PlaceBid(ctx, sc.Auction.ID,
				auction.AccountID(step.Actor), step.Amount,
				auction.AccountID(step.FundsSource))
		case scenario.OpFinalize:
			_, opErr = eng.Finalize(ctx, sc.Auction.ID, auction.AccountID(step.Actor))
		default:
			return nil, fmt.Errorf("step %d: unknown op %q", i, step.Op)
		}
		res.checkExpect(i, step, opErr)
	}

	res.Record, err = eng.GetAuction(ctx, sc.Auction.ID)
	if err != nil {
		return nil, fmt.Errorf("reading final record: %w", err)
	}
	res.Trace, err = eng.Trace(ctx, sc.Auction.ID)
	if err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}

	if sc.Assertions != nil {
		res.checkAssertions(ctx, db, sc)
	}
	return res, nil
}

// checkExpect compares one step's outcome against its declaration.
func (r *Result) checkExpect(i int, step scenario.Step, opErr error) {
	if step.Expect.OK {
		if opErr != nil {
			r.failf("step %d (%s by %s): expected success, got %v", i, step.Op, step.Actor, opErr)
		}
		return
	}
	if opErr == nil {
		r.failf("step %d (%s by %s): expected %s, succeeded", i, step.Op, step.Actor, step.Expect.Error)
		return
	}
	if code := auction.CodeOf(opErr); string(code) != step.Expect.Error {
		r.failf("step %d (%s by %s): expected %s, got %s (%v)", i, step.Op, step.Actor, step.Expect.Error, code, opErr)
	}
}

// checkAssertions verifies the scenario's final-state assertions.
func (r *Result) checkAssertions(ctx context.Context, db *store.Store, sc *scenario.Scenario) {
	a := sc.Assertions

	for account, want := range a.Balances {
		got, err := db.Balance(ctx, auction.AccountID(account))
		if err != nil {
			r.failf("balance %s: %v", account, err)
			continue
		}
		if got != want {
			r.failf("balance %s: got %d, want %d", account, got, want)
		}
	}

	if a.AssetOwner != "" {
		got, err := db.AssetOwner(ctx, auction.AssetID(sc.Auction.Asset))
		if err != nil {
			r.failf("asset owner: %v", err)
		} else if string(got) != a.AssetOwner {
			r.failf("asset owner: got %s, want %s", got, a.AssetOwner)
		}
	}

	if a.Record != nil {
		r.checkRecord(a.Record)
	}
}

func (r *Result) checkRecord(want *scenario.RecordExpect) {
	rec := r.Record
	if want.Settled != nil && rec.Settled != *want.Settled {
		r.failf("record settled: got %t, want %t", rec.Settled, *want.Settled)
	}
	if want.HighestBid != nil && rec.HighestBid != *want.HighestBid {
		r.failf("record highest_bid: got %d, want %d", rec.HighestBid, *want.HighestBid)
	}
	if want.HighestBidder != nil {
		got := ""
		if rec.HighestBidder.Valid {
			got = string(rec.HighestBidder.Account)
		}
		if got != *want.HighestBidder {
			r.failf("record highest_bidder: got %q, want %q", got, *want.HighestBidder)
		}
	}
	if want.EscrowedAmount != nil && rec.EscrowedAmount != *want.EscrowedAmount {
		r.failf("record escrowed_amount: got %d, want %d", rec.EscrowedAmount, *want.EscrowedAmount)
	}
}

func offsetTime(seconds int64) time.Time {
	return testutil.Epoch.Add(time.Duration(seconds) * time.Second)
}
