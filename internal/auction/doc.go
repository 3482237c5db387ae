// Package auction implements the core auction settlement rules.
//
// The package is pure: it defines the auction record, derives the record's
// phase from a supplied clock reading, and validates bid acceptance and
// settlement. It performs no I/O. Custody transfers and persistence are the
// engine's job; this package only decides what a valid operation looks like
// and how the record changes when one is applied.
//
// Phase model:
//
// Pending, Open, and Closed are never stored. They are computed from the
// wall clock against start_time/end_time each time an operation observes the
// record, so there is no "close" write that can be missed. Only the terminal
// Settled transition is persisted, because it guards against double
// settlement and must survive restarts.
//
// Error model:
//
// Every rejection is an *Error carrying a stable Code. Preconditions are
// checked in a fixed order and the first failure wins; no check mutates
// anything, so a rejected operation has no effect by construction.
package auction
