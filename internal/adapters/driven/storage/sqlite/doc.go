// Package sqlite provides a SQLite implementation of driven.Store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database file holds four tables:
//
//   - documents: extracted papers keyed by doc_id
//   - document_chunks: chunk spans keyed by (doc_id, chunk_id), removed with their document
//   - stylized_facts: the fact catalogue keyed by fact_number
//   - assessments: one verdict per fact_number
//
// Embeddings are stored as little-endian float32 blobs. A NULL blob means "not yet embedded".
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.litreview/data/literature_review.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
