// Package vectorstore implements the VectorStore abstraction (SPEC_FULL.md
// §4.4.5): an embedded, zero-config backend for single-machine use, and a
// remote backend for shared/production deployments, behind one interface.
package vectorstore

import "context"

// Record is one indexed chunk: its vector, the source text it was derived
// from, and enough metadata to support removal by source path.
type Record struct {
	ID       string
	Vector   []float32
	Content  string
	Metadata map[string]interface{}
}

// Result is a single similarity search hit.
type Result struct {
	ID       string
	Score    float32
	Content  string
	Metadata map[string]interface{}
}

// VectorStore is the storage and retrieval interface the indexer and
// retrieval path depend on. All methods operate against a single fixed
// collection configured at construction time.
type VectorStore interface {
	// Add upserts records by ID. Re-adding an existing ID overwrites it.
	Add(ctx context.Context, records []Record) error

	// Search returns the topK most similar records to vector, ordered by
	// descending score.
	Search(ctx context.Context, vector []float32, topK int) ([]Result, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Clear removes every record.
	Clear(ctx context.Context) error

	// GetIndexedPaths returns the distinct "source" metadata values across
	// all stored records, used to detect stale/removed files.
	GetIndexedPaths(ctx context.Context) ([]string, error)

	// RemoveBySource deletes every record whose normalized "source" metadata
	// equals source or lies under it as a subtree (source+"/"-prefixed),
	// after normalizing both sides to "/"-separated form. Returns the number
	// of records removed.
	RemoveBySource(ctx context.Context, source string) (int, error)

	// Close releases any held resources (file handles, connections).
	Close() error
}
