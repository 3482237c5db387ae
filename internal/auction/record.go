package auction

import (
	"math"
	"time"
)

// AccountID identifies a party's ledger account on the substrate.
// Sellers, bidders, and per-auction custody accounts all share this space.
type AccountID string

// AssetID identifies the transferable asset an auction sells.
type AssetID string

// Bidder is the optional highest-bidder identity. The zero value means no
// qualifying bid has been placed and no escrow is held. Modeled like
// sql.NullString so every call site has to consider the empty case.
type Bidder struct {
	Account AccountID
	Valid   bool
}

// SomeBidder wraps an account as a present bidder identity.
func SomeBidder(account AccountID) Bidder {
	return Bidder{Account: account, Valid: true}
}

// NoBidder is the absent bidder identity.
func NoBidder() Bidder {
	return Bidder{}
}

// Record is the durable state of one auction. It is created once, mutated
// by each accepted bid, and mutated exactly once more by settlement.
//
// Invariants (hold after every operation):
//   - HighestBid >= ReservePrice. HighestBid is initialized to ReservePrice
//     as a floor; it is not a real bid until HighestBidder is set.
//   - EscrowedAmount == HighestBid when HighestBidder.Valid, else 0. At most
//     one bidder's funds are in escrow at any time.
//   - Settled is set once and never cleared; a settled record is immutable.
type Record struct {
	ID             string
	Seller         AccountID
	Asset          AssetID
	ReservePrice   int64
	BidIncrement   int64
	StartTime      time.Time
	EndTime        time.Time
	HighestBid     int64
	HighestBidder  Bidder
	EscrowedAmount int64
	Settled        bool

	// SettledBy records which caller triggered settlement. Finalization is
	// permissionless, so the trigger identity is kept for audit only.
	SettledBy AccountID
}

// NewRecord validates auction parameters and returns a fresh record with the
// reserve floor in place and no bidder.
func NewRecord(id string, seller AccountID, asset AssetID, reservePrice, bidIncrement int64, start, end time.Time) (*Record, error) {
	if id == "" {
		return nil, newError(CodeInvalidParameters, "auction id must not be empty", id)
	}
	if reservePrice < 0 {
		return nil, newError(CodeInvalidParameters, "reserve price must not be negative", id)
	}
	if bidIncrement < 0 {
		return nil, newError(CodeInvalidParameters, "bid increment must not be negative", id)
	}
	if !start.Before(end) {
		return nil, errInvalidWindow(id, start, end)
	}

	return &Record{
		ID:            id,
		Seller:        seller,
		Asset:         asset,
		ReservePrice:  reservePrice,
		BidIncrement:  bidIncrement,
		StartTime:     start,
		EndTime:       end,
		HighestBid:    reservePrice,
		HighestBidder: NoBidder(),
	}, nil
}

// CustodyAccount is the ledger account owned by the auction itself. Escrowed
// funds sit here while bidding is open, and the asset is parked under the
// same identity until settlement hands it to the winner or back to the
// seller.
func (r *Record) CustodyAccount() AccountID {
	return AccountID("auction/" + r.ID)
}

// MinNextBid is the smallest acceptable next bid. For the very first real
// bid HighestBid still carries the reserve floor, so the first bid must
// clear reserve price plus one increment. The sum saturates at MaxInt64
// instead of wrapping negative when the floor sits near the top of the
// range; wrapping would let an arbitrarily low bid under the reserve.
func (r *Record) MinNextBid() int64 {
	if r.BidIncrement > math.MaxInt64-r.HighestBid {
		return math.MaxInt64
	}
	return r.HighestBid + r.BidIncrement
}
