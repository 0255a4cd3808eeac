// Package store records enumeration passes in SQLite so they can be traced
// and compared after the fact.
//
// A pass is one run of one spec over one graph. Its candidates are stored in
// enumeration order and can be read back exactly as they were produced.
//
// # Ordering
//
//   - Passes are ordered by seq INTEGER (logical clock), NEVER timestamps
//   - Candidates are ordered by ordinal, their position in the pass
//   - Pass IDs are UUIDv7 by default; tests inject a fixed IDGenerator
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Candidate IDs are computed by internal/ir using canonical JSON and SHA-256
// with domain separation, so the same candidate has the same ID in every pass.
package store
