// Package audit defines the append-only audit trail of auction operations.
//
// Every successful create, bid, refund, payout, asset move, and settlement
// produces one Entry, written in the same atomic unit as the state change it
// describes. Entries are content-addressed: the ID is a SHA-256 over the
// entry's canonical JSON with domain separation, so re-applying the same
// operation yields the same ID and the log's UNIQUE constraint absorbs it.
//
// Canonical JSON here follows RFC 8785: object keys sorted by UTF-16 code
// units, NFC-normalized strings, no HTML escaping, and no floats or nulls.
// Floats are forbidden on purpose - all monetary amounts are int64 base
// units, and a float sneaking into a hashed payload would be a bug.
package audit
