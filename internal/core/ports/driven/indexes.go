package driven

import "github.com/splap/bookqa/internal/core/domain"

// LexicalIndex provides BM25 keyword search over a single book's
// chunks. Implementations are built once at ingest and are read-only
// afterwards, so no locking is needed for concurrent readers.
type LexicalIndex interface {
	// Search performs a keyword search restricted to the given scope.
	// A nil scope searches the whole book. Results are ordered by
	// score descending, ties broken by ascending chunk ID. A query
	// matching nothing returns an empty slice, not an error.
	Search(query string, scope domain.Scope, limit int) []domain.SearchHit

	// Size returns the number of indexed chunks.
	Size() int
}

// VectorIndex provides approximate nearest-neighbour search over a
// single book's chunk embeddings. Optional; nil when the book was
// ingested without an embedding service.
type VectorIndex interface {
	// Search finds the k nearest chunks to the query vector within the
	// given scope. A nil scope searches the whole book.
	Search(query []float32, scope domain.Scope, k int) ([]domain.SearchHit, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Dimensions returns the vector size the index was built for.
	Dimensions() int
}
