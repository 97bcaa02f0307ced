// Package repositories implements SQLite persistence for client-side state.
//
// Key Implementations:
//   - [SessionRepository] : bearer tokens keyed by profile; implements session.Store
//   - [SnapshotRepository] : last fetched copy of each dataset for offline listing
//
// Sequence numbers give snapshots a stable ordering independent of their UUIDs.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
