// Package store provides SQLite-backed storage for compiled objects and
// their runs.
//
// The store is append-only:
//   - Objects: compiled object files, keyed by content-addressed ID
//   - Runs: one execution of an object with a requested shot count
//   - Shots: the measurement map and decoded result of each shot
//
// # Ordering
//
// Objects and runs carry a seq from the session's logical clock, never a
// timestamp. List queries order by seq ASC, id ASC COLLATE BINARY; shots
// order by their index within the run.
//
// # Encoding
//
// Bindings and results are stored as RFC 8785 canonical JSON, so equal
// values produce equal text and result hashes can be recomputed from the
// stored column.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
