// Package harness executes auction scenarios against a fresh in-memory
// store with a manually advanced clock, checks each step's outcome against
// its declared expectation, and verifies final-state assertions.
//
// Step mismatches and failed assertions accumulate in Result.Failures;
// Run returns an error only for infrastructure problems, so a scenario
// whose steps behave unexpectedly still yields a full report.
//
// RunWithGolden additionally snapshots the audit trail as canonical JSON
// and compares it against a golden file under testdata/golden.
package harness
