// Package storage provides the PostgreSQL persistence layer.
//
// Stores take an existing *sql.DB; connection pooling and lifecycle belong
// to the caller. Every tenant-scoped query filters by school_id in SQL, so
// a handler bug can widen a response but never the rows it was built from.
package storage
