// Package scenario loads declarative auction scenarios from YAML files.
//
// A scenario describes one auction: its parameters, the accounts and assets
// to seed, a sequence of timed steps (bids and finalize calls) with expected
// outcomes, and optional assertions about the final state. Scenario times are
// offsets in seconds from a fixed epoch, so runs are fully deterministic.
//
// Loaded documents are validated against an embedded CUE schema before any
// Go-side decoding, which catches unknown fields and malformed values with
// positions instead of zero-value surprises.
package scenario
