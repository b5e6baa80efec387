package driving

import (
	"context"

	"github.com/splap/bookqa/internal/core/domain"
)

// ToolSurface is the retrieval tool set exposed to reasoning agents,
// both the in-process executor and external agents over MCP. Every
// call is read-only against immutable per-book indexes.
type ToolSurface interface {
	// ConceptMapLookup matches a query against the book's concept map
	// labels and aliases. Deterministic, no LLM involvement.
	ConceptMapLookup(ctx context.Context, bookID, query string) (domain.ConceptMatches, error)

	// LexicalSearch runs BM25 keyword search, optionally restricted to
	// the given chapters.
	LexicalSearch(ctx context.Context, bookID, query string, chapterIDs []string, limit int) ([]domain.SearchHit, error)

	// SemanticSearch embeds the query and searches the semantic index.
	// Returns domain.ErrIndexUnavailable for lexical-only books.
	SemanticSearch(ctx context.Context, bookID, query string, chapterIDs []string, limit int) ([]domain.SearchHit, error)

	// GetChapterSummary returns a chapter summary, generating it on
	// first request.
	GetChapterSummary(ctx context.Context, bookID, chapterID string) (*domain.ChapterSummary, error)

	// GetBookSynopsis returns the book synopsis, generating it on
	// first request.
	GetBookSynopsis(ctx context.Context, bookID string) (*domain.BookSynopsis, error)

	// GetChunk returns one chunk's full text by ID.
	GetChunk(ctx context.Context, bookID, chunkID string) (*domain.Chunk, error)
}
