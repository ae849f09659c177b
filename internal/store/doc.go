// Package store is the storage adapter for the activity log.
//
// A Store owns the connection pool, the schema manager, the dimension
// resolver and the query builder for one database. It exposes:
//   - QueryActivities / QueryActivitiesPaginated: filtered reads mapped to records
//   - CreateActivityBatch: buffered writers that commit one batch per transaction
//   - DeleteActivities / ActivitiesPKBounds: primitives for chunked purges
//   - MarkReversed: flag activities as undone or redone
//
// # Dialects
//
//   - sqlite (drivers "sqlite3" and "sqlite"): WAL mode, one connection,
//     subquery deletes
//   - postgres (driver "pgx"): pooled connections, DELETE ... USING and the
//     create_activity server function for the procedure batch writer
//
// # Failure handling
//
// Connection failures are returned as *ConnectError and logged with a
// diagnostic checklist. A fact row whose dimensions cannot be resolved is
// dropped from its batch with a logged error; the rest of the batch is
// unaffected. Rows with unknown action types are skipped on read with a
// warning. Metadata that fails to encode or decode is dropped from that row
// only.
//
// All methods are safe for concurrent use. A BatchWriter is not; use one
// per goroutine.
package store
