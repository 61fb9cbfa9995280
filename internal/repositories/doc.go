// Package repositories implements SQLite persistence for the watchlist.
//
// Key Implementations:
//   - [MovieRepository] : stored movies keyed by catalog id, with change observers for live lists
//   - [ImportRepository] : import run history with status tracking
//   - [Persister] : store subscriber that writes dispatched actions through to [MovieRepository]
//
// Sequence numbers record insertion order independent of catalog ids and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
