// Package engine orchestrates auction operations against the substrate.
//
// Each public operation - CreateAuction, PlaceBid, Finalize - is one
// atomic-apply unit: the engine reads the record fresh inside the unit, runs
// the pure rules from internal/auction, performs the custody transfers, and
// writes the record and audit entries back. No record is ever cached across
// operations; the substrate transaction is the only commit point.
//
// Contention model: there are no engine-level locks or queues. The store
// serializes units touching overlapping state, so two racing bids resolve by
// whichever commits first; the loser observes the winner's new high bid and
// gets a BID_TOO_LOW it can correct and resubmit. Rejections are total - no
// precondition failure leaves a partial effect behind.
//
// The engine stamps every audit entry from a monotonic sequencer that
// resumes from the persisted log on startup, so operation order survives
// restarts independent of wall time.
package engine
