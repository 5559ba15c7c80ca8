// Package store provides SQLite-backed durable storage for scenario runs.
//
// The store is an append-only log with:
//   - Runs: one row per scenario execution (status, pass, trace digest)
//   - Events: the run's trace, one row per output or suffix event
//
// # Ordering
//
// Runs and events are ordered by a logical seq column, never by
// timestamps, so listing a log gives the same order on every machine.
// Queries order by seq ASC, id ASC COLLATE BINARY.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING: recording the same run twice keeps
// the first copy.
//
// # Payloads
//
// Event payloads are canonical JSON produced by ir.MarshalCanonical and
// decoded with ir.Unmarshal, so stored traces hash the same as in-memory
// ones.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - foreign_keys=ON: Events must reference a run
//   - Single connection: SQLite allows one writer
package store
