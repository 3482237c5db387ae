package auction

import "time"

// CheckBid validates a bid against the record without mutating anything.
//
// Checks run in a fixed order and the first failure determines the reported
// error:
//  1. The derived phase must be Open.
//  2. The amount must reach HighestBid + BidIncrement.
//  3. The bidder must not already hold the highest bid; outbidding yourself
//     would only burn a pointless refund/re-escrow cycle.
//
// Funds coverage is deliberately not checked here: it belongs to the custody
// ledger and runs fourth, in the engine, so the error ordering the contract
// promises still holds.
func (r *Record) CheckBid(now time.Time, bidder AccountID, amount int64) error {
	if phase := r.PhaseAt(now); phase != PhaseOpen {
		return errNotOpen(r.ID, phase)
	}
	if amount < r.MinNextBid() {
		return errBidTooLow(r.ID, amount, r.MinNextBid())
	}
	if r.HighestBidder.Valid && r.HighestBidder.Account == bidder {
		return errAlreadyHighest(r.ID, bidder)
	}
	return nil
}

// CheckFunds turns an observed ledger balance into the funds-coverage
// verdict for a bid. Split from CheckBid so the engine can read the balance
// inside the same atomic unit that applies the bid.
func (r *Record) CheckFunds(source AccountID, amount, available int64) error {
	if available < amount {
		return errInsufficientFunds(r.ID, source, amount, available)
	}
	return nil
}

// OutbidRefund reports the refund owed to the current highest bidder, if
// one exists. The refund must be released before the new bid is captured so
// the auction never escrows more than one bidder's funds at a time.
func (r *Record) OutbidRefund() (to AccountID, amount int64, ok bool) {
	if !r.HighestBidder.Valid {
		return "", 0, false
	}
	return r.HighestBidder.Account, r.EscrowedAmount, true
}

// ApplyBid records an accepted bid. Call only after CheckBid and CheckFunds
// pass and the custody transfers succeed; the record then reflects the new
// escrow holder.
func (r *Record) ApplyBid(bidder AccountID, amount int64) {
	r.HighestBid = amount
	r.HighestBidder = SomeBidder(bidder)
	r.EscrowedAmount = amount
}
