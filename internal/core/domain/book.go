package domain

import "time"

// Book identifies a single ingested book.
// Books are immutable once ingested; re-ingesting replaces all derived
// artifacts (chunks, indexes, concept map, summaries).
type Book struct {
	// ID is the unique identifier for the book.
	ID string

	// Title is the human-readable title.
	Title string

	// Author is the book's author, if known.
	Author string

	// IngestedAt is when indexing completed for this book.
	IngestedAt time.Time
}

// Chapter holds structural metadata for one chapter.
// It is derived once from the book's manifest and never modified.
type Chapter struct {
	// ID is the unique identifier for the chapter.
	ID string

	// BookID links to the owning Book.
	BookID string

	// Title is the chapter title from the manifest.
	Title string

	// Ordinal is the reading-order position, starting at 0.
	Ordinal int

	// SpinePosition is the position in the book's spine, which may
	// differ from Ordinal when front matter is skipped.
	SpinePosition int
}

// IndexState describes where a book is in its indexing lifecycle.
type IndexState string

const (
	// IndexStatePending means ingestion has been requested but not started.
	IndexStatePending IndexState = "pending"

	// IndexStateBuilding means the indexing pipeline is running.
	IndexStateBuilding IndexState = "building"

	// IndexStateReady means all retrieval artifacts are built and immutable.
	IndexStateReady IndexState = "ready"

	// IndexStateFailed means ingestion aborted before producing a usable index.
	IndexStateFailed IndexState = "failed"
)

// IndexStatus reports the indexing progress and health for a book.
type IndexStatus struct {
	// BookID identifies the book.
	BookID string

	// State is the current lifecycle state.
	State IndexState

	// ChunkCount is the total number of chunks produced.
	ChunkCount int

	// EmbeddedCount is the number of chunks with embeddings.
	EmbeddedCount int

	// ExcludedChunks counts chunks dropped from the semantic index
	// after their embedding failed and a retry also failed.
	ExcludedChunks int

	// SemanticAvailable is false when the book runs in lexical-only
	// mode because the embedding capability was unavailable.
	SemanticAvailable bool

	// Err holds the failure message when State is IndexStateFailed.
	Err string
}
