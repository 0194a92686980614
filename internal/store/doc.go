// Package store owns the authoritative set of maintenance tasks and its
// durable copy.
//
// The whole set is serialized as one versioned JSON document and handed to
// a Backend: a JSON file guarded by flock(2), a SQLite or PostgreSQL row,
// or process memory. Mutations go through Store.Update, which stages
// changes on a copy, persists, and publishes the copy to readers only after
// the backend accepted it. A failed write therefore leaves readers on the
// previous state.
//
// Loading is tolerant: malformed records are skipped, inconsistent ones are
// repaired (a running task without a start time becomes paused), and both
// are reported in a LoadReport.
package store
