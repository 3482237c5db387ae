package auction

import "time"

// Settlement describes the custody transfers finalization must perform.
// It is computed from the record alone, which is why finalize can be
// permissionless: no caller input can redirect a payout.
type Settlement struct {
	// Winner is the qualifying bidder, absent when only the reserve floor
	// was ever present.
	Winner Bidder

	// Proceeds is the escrowed amount paid to the seller. Zero when there
	// is no winner, since no funds are held in that case.
	Proceeds int64

	// AssetTo receives the asset: the winner if one exists, otherwise the
	// asset returns to the seller.
	AssetTo AccountID
}

// CheckFinalize validates that settlement may run at the given instant.
// Ordering matters: a settled record reports AlreadySettled, an open or
// pending one reports AuctionNotYetEnded.
func (r *Record) CheckFinalize(now time.Time) error {
	switch r.PhaseAt(now) {
	case PhaseSettled:
		return errAlreadySettled(r.ID)
	case PhaseClosed:
		return nil
	default:
		return errNotYetEnded(r.ID, now, r.EndTime)
	}
}

// Settlement computes the transfer plan for this record.
func (r *Record) Settlement() Settlement {
	if !r.HighestBidder.Valid {
		return Settlement{Winner: NoBidder(), AssetTo: r.Seller}
	}
	return Settlement{
		Winner:   r.HighestBidder,
		Proceeds: r.EscrowedAmount,
		AssetTo:  r.HighestBidder.Account,
	}
}

// MarkSettled flips the record terminal. Escrow is cleared because the
// funds have left the auction's custody; who triggered the settlement is
// retained for the audit trail.
func (r *Record) MarkSettled(by AccountID) {
	r.EscrowedAmount = 0
	r.Settled = true
	r.SettledBy = by
}
