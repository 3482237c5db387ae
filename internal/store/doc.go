// Package store is the substrate the auction engine runs on: SQLite-backed
// durable state with an atomic-apply primitive.
//
// It holds four tables:
//   - auctions: one row per auction record
//   - accounts: the custody ledger of fund balances
//   - assets: current owner of each transferable asset
//   - audit_log: append-only trail of every state change
//
// # Atomic apply
//
// Every public engine operation runs inside Store.Apply, which wraps the
// work in one SQL transaction. Reads, record writes, custody transfers, and
// the audit append either all take effect or none do; an error from the
// callback rolls the whole unit back. Combined with the single-writer
// connection pool this serializes operations touching overlapping state,
// which is the only concurrency control the engine needs.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// The custody ledger enforces balance >= 0 with a CHECK constraint, so even
// a buggy caller cannot drive an account negative inside a committed
// transaction.
package store
