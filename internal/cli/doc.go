// Package cli implements the gavel command line interface.
//
// Commands operate on the auction database named by the global --db flag:
// create, bid, finalize, show, trace, fund, and mint drive the engine
// directly, while test runs declarative scenario files through the
// conformance harness. All commands support --format json for scripting.
package cli
