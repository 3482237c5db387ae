package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Op names the kind of state change an entry records.
type Op string

const (
	// OpCreate records auction creation; the asset enters custody.
	OpCreate Op = "create"
	// OpBid records an accepted bid; Amount is the captured escrow.
	OpBid Op = "bid"
	// OpRefund records escrow released to an outbid party.
	OpRefund Op = "refund"
	// OpPayout records escrow paid to the seller at settlement.
	OpPayout Op = "payout"
	// OpAssetTransfer records the asset moving to the winner.
	OpAssetTransfer Op = "asset_transfer"
	// OpAssetReturn records the asset going back to the seller of a
	// no-bid auction.
	OpAssetReturn Op = "asset_return"
	// OpSettle records the terminal settlement mark and who triggered it.
	OpSettle Op = "settle"
)

// entryDomain prefixes the hashed payload so audit IDs can never collide
// with hashes computed for another purpose. Version suffix allows algorithm
// migration.
const entryDomain = "gavel/audit/v1"

// Entry is one audit record. ID is content-addressed over the remaining
// fields, so the same logical event always hashes to the same ID.
type Entry struct {
	ID           string
	AuctionID    string
	Seq          int64
	Op           Op
	Actor        string
	Amount       int64
	Counterparty string
}

// New builds an entry and computes its content-addressed ID.
func New(auctionID string, seq int64, op Op, actor string, amount int64, counterparty string) (Entry, error) {
	e := Entry{
		AuctionID:    auctionID,
		Seq:          seq,
		Op:           op,
		Actor:        actor,
		Amount:       amount,
		Counterparty: counterparty,
	}
	id, err := EntryID(e)
	if err != nil {
		return Entry{}, err
	}
	e.ID = id
	return e, nil
}

// EntryID computes the content-addressed ID for an entry. The ID field
// itself is excluded from the hash.
func EntryID(e Entry) (string, error) {
	canonical, err := MarshalCanonical(e.payload())
	if err != nil {
		return "", fmt.Errorf("EntryID: marshal: %w", err)
	}
	return hashWithDomain(entryDomain, canonical), nil
}

// payload is the hashed representation. Field set changes here change every
// entry ID, which is an audit-log format break; bump entryDomain if that
// ever becomes necessary.
func (e Entry) payload() map[string]any {
	return map[string]any{
		"auction_id":   e.AuctionID,
		"seq":          e.Seq,
		"op":           string(e.Op),
		"actor":        e.Actor,
		"amount":       e.Amount,
		"counterparty": e.Counterparty,
	}
}

// hashWithDomain computes SHA256(domain || 0x00 || data). The null separator
// keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
