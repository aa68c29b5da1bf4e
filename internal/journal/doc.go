// Package journal keeps a durable log of the requests a client sends.
//
// Each request that passes the journal Stage is appended as one row: the
// request ID, a logical sequence number, the kind (query or update), the
// generated query text, the outcome and timing, and the response headers
// as canonical JSON. Responses themselves are not stored; the journal is an
// audit trail, not a cache.
//
// STORAGE
//
// The journal is a SQLite database opened in WAL mode with a single
// connection. The schema is embedded and applied on Open; later schema
// changes are tracked through PRAGMA user_version.
//
// ORDERING
//
// Rows are ordered by seq, a logical clock resumed from the highest stored
// value when the journal is opened. Wall-clock start times are recorded for
// display only.
package journal
