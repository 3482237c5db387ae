package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gavel/internal/auction"
	"github.com/roach88/gavel/internal/audit"
	"github.com/roach88/gavel/internal/store"
	"github.com/roach88/gavel/internal/testutil"
)

type fixture struct {
	engine *Engine
	store  *store.Store
	clock  *testutil.ManualClock
	start  time.Time
	end    time.Time
}

// newFixture builds an engine over a temp-file store with a manual clock
// parked one minute before the auction window opens.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(filepath.Join(t.TempDir(), "gavel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	start := testutil.Epoch
	clock := testutil.NewManualClock(start.Add(-time.Minute))

	e, err := New(ctx, s, clock)
	require.NoError(t, err)

	require.NoError(t, e.Fund(ctx, "bob", 500))
	require.NoError(t, e.Fund(ctx, "carol", 500))
	require.NoError(t, e.SeedAsset(ctx, "painting-7", "alice"))

	return &fixture{
		engine: e,
		store:  s,
		clock:  clock,
		start:  start,
		end:    start.Add(100 * time.Second),
	}
}

func (f *fixture) create(t *testing.T) *auction.Record {
	t.Helper()
	rec, err := f.engine.CreateAuction(context.Background(), CreateParams{
		ID:           "art-1",
		Seller:       "alice",
		Asset:        "painting-7",
		ReservePrice: 100,
		BidIncrement: 10,
		Start:        f.start,
		End:          f.end,
	})
	require.NoError(t, err)
	return rec
}

func (f *fixture) at(offset time.Duration) {
	f.clock.Set(f.start.Add(offset))
}

func (f *fixture) balance(t *testing.T, account auction.AccountID) int64 {
	t.Helper()
	balance, err := f.store.Balance(context.Background(), account)
	require.NoError(t, err)
	return balance
}

func TestCreateAuction_TakesAssetIntoCustody(t *testing.T) {
	f := newFixture(t)
	rec := f.create(t)

	owner, err := f.store.AssetOwner(context.Background(), "painting-7")
	require.NoError(t, err)
	assert.Equal(t, rec.CustodyAccount(), owner)
	assert.Equal(t, int64(100), rec.HighestBid)
	assert.False(t, rec.HighestBidder.Valid)
}

func TestCreateAuction_DuplicateID(t *testing.T) {
	f := newFixture(t)
	f.create(t)

	ctx := context.Background()
	require.NoError(t, f.engine.SeedAsset(ctx, "vase-2", "alice"))
	_, err := f.engine.CreateAuction(ctx, CreateParams{
		ID: "art-1", Seller: "alice", Asset: "vase-2",
		ReservePrice: 1, BidIncrement: 1, Start: f.start, End: f.end,
	})
	assert.Equal(t, auction.CodeDuplicateAuctionID, auction.CodeOf(err))

	// The losing create must not have moved the second asset.
	owner, err := f.store.AssetOwner(ctx, "vase-2")
	require.NoError(t, err)
	assert.Equal(t, auction.AccountID("alice"), owner)
}

func TestCreateAuction_InvalidWindow(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.CreateAuction(context.Background(), CreateParams{
		ID: "art-1", Seller: "alice", Asset: "painting-7",
		ReservePrice: 100, BidIncrement: 10, Start: f.end, End: f.start,
	})
	assert.Equal(t, auction.CodeInvalidWindow, auction.CodeOf(err))
}

func TestCreateAuction_SellerLacksAsset(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.CreateAuction(context.Background(), CreateParams{
		ID: "art-1", Seller: "bob", Asset: "painting-7",
		ReservePrice: 100, BidIncrement: 10, Start: f.start, End: f.end,
	})
	assert.Equal(t, auction.CodeCustodyTransferFailed, auction.CodeOf(err))

	// Rolled back: the record must not exist.
	_, err = f.engine.GetAuction(context.Background(), "art-1")
	assert.Equal(t, auction.CodeAuctionNotFound, auction.CodeOf(err))
}

// The worked scenario from the settlement contract: reserve 100, increment
// 10, window [t0, t0+100).
func TestLifecycle_FullScenario(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	ctx := context.Background()

	f.at(time.Second)
	_, err := f.engine.PlaceBid(ctx, "art-1", "bob", 100, "")
	assert.Equal(t, auction.CodeBidTooLow, auction.CodeOf(err), "100 needs to be at least 110")

	rec, err := f.engine.PlaceBid(ctx, "art-1", "bob", 110, "")
	require.NoError(t, err)
	assert.Equal(t, int64(110), rec.HighestBid)
	assert.Equal(t, int64(390), f.balance(t, "bob"))
	assert.Equal(t, int64(110), f.balance(t, rec.CustodyAccount()))

	f.at(2 * time.Second)
	rec, err = f.engine.PlaceBid(ctx, "art-1", "carol", 125, "")
	require.NoError(t, err)
	assert.Equal(t, int64(125), rec.HighestBid)
	assert.Equal(t, int64(500), f.balance(t, "bob"), "outbid refund is complete")
	assert.Equal(t, int64(375), f.balance(t, "carol"))
	assert.Equal(t, int64(125), f.balance(t, rec.CustodyAccount()), "exactly one bidder escrowed")

	f.at(99 * time.Second)
	_, err = f.engine.Finalize(ctx, "art-1", "alice")
	assert.Equal(t, auction.CodeAuctionNotYetEnded, auction.CodeOf(err))

	f.at(100 * time.Second)
	rec, err = f.engine.Finalize(ctx, "art-1", "alice")
	require.NoError(t, err)
	assert.True(t, rec.Settled)
	assert.Equal(t, int64(125), f.balance(t, "alice"), "seller receives proceeds")
	assert.Equal(t, int64(0), f.balance(t, rec.CustodyAccount()), "escrow fully drained")

	owner, err := f.store.AssetOwner(ctx, "painting-7")
	require.NoError(t, err)
	assert.Equal(t, auction.AccountID("carol"), owner, "winner receives asset")
}

func TestPlaceBid_WindowEnforcement(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	ctx := context.Background()

	// Pending: clock still sits before start.
	_, err := f.engine.PlaceBid(ctx, "art-1", "bob", 110, "")
	assert.Equal(t, auction.CodeAuctionNotOpen, auction.CodeOf(err))

	f.at(100 * time.Second)
	_, err = f.engine.PlaceBid(ctx, "art-1", "bob", 110, "")
	assert.Equal(t, auction.CodeAuctionNotOpen, auction.CodeOf(err), "end instant rejects")

	// Neither rejection may touch the ledger.
	assert.Equal(t, int64(500), f.balance(t, "bob"))
	rec, err := f.engine.GetAuction(ctx, "art-1")
	require.NoError(t, err)
	assert.False(t, rec.HighestBidder.Valid)
}

func TestPlaceBid_MissingAuction(t *testing.T) {
	f := newFixture(t)
	f.at(time.Second)

	_, err := f.engine.PlaceBid(context.Background(), "ghost", "bob", 110, "")
	assert.Equal(t, auction.CodeAuctionNotOpen, auction.CodeOf(err))
}

func TestPlaceBid_InsufficientFunds(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	ctx := context.Background()

	f.at(time.Second)
	_, err := f.engine.PlaceBid(ctx, "art-1", "bob", 501, "")
	// 501 clears the floor (110) but bob only holds 500.
	assert.Equal(t, auction.CodeInsufficientFunds, auction.CodeOf(err))
	assert.Equal(t, int64(500), f.balance(t, "bob"), "nothing captured")
}

func TestPlaceBid_SeparateFundsSource(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	ctx := context.Background()
	require.NoError(t, f.engine.Fund(ctx, "treasury", 1000))

	f.at(time.Second)
	rec, err := f.engine.PlaceBid(ctx, "art-1", "bob", 110, "treasury")
	require.NoError(t, err)

	assert.Equal(t, int64(890), f.balance(t, "treasury"), "funds drawn from the named source")
	assert.Equal(t, int64(500), f.balance(t, "bob"))
	assert.Equal(t, auction.AccountID("bob"), rec.HighestBidder.Account, "bid credited to the bidder identity")
}

func TestPlaceBid_SelfOutbid(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	ctx := context.Background()

	f.at(time.Second)
	_, err := f.engine.PlaceBid(ctx, "art-1", "bob", 110, "")
	require.NoError(t, err)

	_, err = f.engine.PlaceBid(ctx, "art-1", "bob", 200, "")
	assert.Equal(t, auction.CodeAlreadyHighestBidder, auction.CodeOf(err))
	assert.Equal(t, int64(390), f.balance(t, "bob"), "rejection leaves escrow untouched")
}

func TestPlaceBid_RefundHappensBeforeCapture(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	ctx := context.Background()

	f.at(time.Second)
	_, err := f.engine.PlaceBid(ctx, "art-1", "bob", 110, "")
	require.NoError(t, err)
	_, err = f.engine.PlaceBid(ctx, "art-1", "carol", 125, "")
	require.NoError(t, err)

	trace, err := f.engine.Trace(ctx, "art-1")
	require.NoError(t, err)

	var ops []audit.Op
	for _, e := range trace {
		ops = append(ops, e.Op)
	}
	assert.Equal(t, []audit.Op{audit.OpCreate, audit.OpBid, audit.OpRefund, audit.OpBid}, ops)

	refund := trace[2]
	assert.Equal(t, int64(110), refund.Amount)
	assert.Equal(t, "bob", refund.Counterparty)
	assert.Less(t, refund.Seq, trace[3].Seq, "refund sequenced before the capturing bid")
}

func TestFinalize_NoBids_ReturnsAsset(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	ctx := context.Background()

	f.at(101 * time.Second)
	rec, err := f.engine.Finalize(ctx, "art-1", "dave")
	require.NoError(t, err)

	assert.True(t, rec.Settled)
	assert.Equal(t, auction.AccountID("dave"), rec.SettledBy, "trigger identity recorded for audit")
	owner, err := f.store.AssetOwner(ctx, "painting-7")
	require.NoError(t, err)
	assert.Equal(t, auction.AccountID("alice"), owner)
	assert.Equal(t, int64(0), f.balance(t, "alice"), "no funds move without a winner")

	trace, err := f.engine.Trace(ctx, "art-1")
	require.NoError(t, err)
	assert.Equal(t, audit.OpAssetReturn, trace[1].Op)
	assert.Equal(t, audit.OpSettle, trace[2].Op)
}

func TestFinalize_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	ctx := context.Background()

	f.at(time.Second)
	_, err := f.engine.PlaceBid(ctx, "art-1", "carol", 125, "")
	require.NoError(t, err)

	f.at(101 * time.Second)
	_, err = f.engine.Finalize(ctx, "art-1", "alice")
	require.NoError(t, err)

	_, err = f.engine.Finalize(ctx, "art-1", "alice")
	assert.Equal(t, auction.CodeAlreadySettled, auction.CodeOf(err))

	// No double payout: seller balance reflects exactly one settlement.
	assert.Equal(t, int64(125), f.balance(t, "alice"))
}

func TestFinalize_MissingAuction(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Finalize(context.Background(), "ghost", "alice")
	assert.Equal(t, auction.CodeAuctionNotFound, auction.CodeOf(err))
}

func TestBidAfterSettlement_Rejected(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	ctx := context.Background()

	f.at(101 * time.Second)
	_, err := f.engine.Finalize(ctx, "art-1", "alice")
	require.NoError(t, err)

	// Even with the clock rewound into the window, the settled flag wins.
	f.at(time.Second)
	_, err = f.engine.PlaceBid(ctx, "art-1", "bob", 110, "")
	assert.Equal(t, auction.CodeAuctionNotOpen, auction.CodeOf(err))
}

func TestSequencer_ResumesAcrossRestart(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	ctx := context.Background()

	f.at(time.Second)
	_, err := f.engine.PlaceBid(ctx, "art-1", "bob", 110, "")
	require.NoError(t, err)

	// A second engine over the same store must continue, not restart, the
	// audit sequence.
	e2, err := New(ctx, f.store, f.clock)
	require.NoError(t, err)
	_, err = e2.PlaceBid(ctx, "art-1", "carol", 125, "")
	require.NoError(t, err)

	trace, err := e2.Trace(ctx, "art-1")
	require.NoError(t, err)
	for i := 1; i < len(trace); i++ {
		assert.Greater(t, trace[i].Seq, trace[i-1].Seq, "seq strictly increases across restart")
	}
}

func TestConcurrentBids_OneWinsOneRetries(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	ctx := context.Background()
	f.at(time.Second)

	// Two bidders race the same amount. The store serializes the units, so
	// exactly one is accepted and the loser sees the new floor.
	type outcome struct {
		bidder auction.AccountID
		err    error
	}
	results := make(chan outcome, 2)
	for _, bidder := range []auction.AccountID{"bob", "carol"} {
		go func(b auction.AccountID) {
			_, err := f.engine.PlaceBid(ctx, "art-1", b, 110, "")
			results <- outcome{bidder: b, err: err}
		}(bidder)
	}

	var accepted, rejected int
	for i := 0; i < 2; i++ {
		r := <-results
		if r.err == nil {
			accepted++
		} else {
			rejected++
			assert.Equal(t, auction.CodeBidTooLow, auction.CodeOf(r.err))
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, rejected)

	rec, err := f.engine.GetAuction(ctx, "art-1")
	require.NoError(t, err)
	assert.Equal(t, int64(110), rec.HighestBid)
	assert.Equal(t, int64(110), f.balance(t, rec.CustodyAccount()), "only one bidder's funds escrowed")
}

func TestNew_TokenGeneratorOption(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "gavel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := testutil.NewManualClock(testutil.Epoch)
	e, err := New(ctx, s, clock, WithTokenGenerator(NewFixedGenerator("op-1", "op-2")))
	require.NoError(t, err)

	require.NoError(t, e.SeedAsset(ctx, "painting-7", "alice"))
	require.NoError(t, e.Fund(ctx, "bob", 500))

	_, err = e.CreateAuction(ctx, CreateParams{
		ID: "art-1", Seller: "alice", Asset: "painting-7",
		ReservePrice: 100, BidIncrement: 10,
		Start: testutil.Epoch, End: testutil.Epoch.Add(100 * time.Second),
	})
	require.NoError(t, err)

	_, err = e.PlaceBid(ctx, "art-1", "bob", 110, "")
	require.NoError(t, err)

	// Both injected tokens are spent: the engine drew one per operation
	// from the supplied generator, and a third operation finds none left.
	assert.Panics(t, func() { e.Finalize(ctx, "art-1", "alice") })
}
