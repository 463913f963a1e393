// Package sqlite persists the vector index in a single SQLite database file.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Chunks are stored with their embeddings as little-endian
// float32 blobs and their metadata as JSON. Loading reads every row into a
// memory.Index, so queries never touch the database.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory:
//
//   - chunks: one row per chunk, ordered by corpus position
//   - index_meta: build information (backend, embedding model, dimensions)
//
// # Data Location
//
// The database lives at <index dir>/index.db. Writes go to a sibling
// temporary directory that is renamed into place once complete.
package sqlite
