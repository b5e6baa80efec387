package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/splap/bookqa/internal/conceptmap"
	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/core/ports/driven"
	"github.com/splap/bookqa/internal/core/ports/driving"
	"github.com/splap/bookqa/internal/logger"
)

// Ensure ToolService implements the interface.
var _ driving.ToolSurface = (*ToolService)(nil)

// defaultSearchLimit is used when a caller passes limit <= 0.
const defaultSearchLimit = 10

// ToolService implements the retrieval tool surface over registered
// book indexes. Every call is read-only; the same instance serves the
// in-process executor and the MCP adapter.
type ToolService struct {
	registry  *BookRegistry
	embedding driven.EmbeddingService
	summaries driving.SummaryService
}

// NewToolService creates a tool service. The embedding service is
// optional; without it SemanticSearch reports the index unavailable.
func NewToolService(
	registry *BookRegistry,
	embedding driven.EmbeddingService,
	summaries driving.SummaryService,
) *ToolService {
	return &ToolService{
		registry:  registry,
		embedding: embedding,
		summaries: summaries,
	}
}

// ConceptMapLookup matches a query against the book's concept map.
func (t *ToolService) ConceptMapLookup(ctx context.Context, bookID, query string) (domain.ConceptMatches, error) {
	idx, err := t.registry.Get(bookID)
	if err != nil {
		return domain.ConceptMatches{}, err
	}
	if idx.ConceptMap == nil {
		return domain.ConceptMatches{}, nil
	}
	matches := conceptmap.Lookup(idx.ConceptMap, query)
	logger.Debug("Concept lookup %q: %d entities, %d themes, %d events",
		query, len(matches.Entities), len(matches.Themes), len(matches.Events))
	return matches, nil
}

// LexicalSearch runs BM25 keyword search within the given chapters.
func (t *ToolService) LexicalSearch(
	ctx context.Context, bookID, query string, chapterIDs []string, limit int,
) ([]domain.SearchHit, error) {
	idx, err := t.registry.Get(bookID)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	hits := idx.Lexical.Search(query, domain.NewScope(chapterIDs), limit)
	logger.Debug("Lexical search %q (scope %d chapters): %d hits", query, len(chapterIDs), len(hits))
	return hits, nil
}

// SemanticSearch embeds the query and searches the semantic index.
func (t *ToolService) SemanticSearch(
	ctx context.Context, bookID, query string, chapterIDs []string, limit int,
) ([]domain.SearchHit, error) {
	idx, err := t.registry.Get(bookID)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}
	if !idx.SemanticAvailable() {
		return nil, fmt.Errorf("book %s is lexical-only: %w", bookID, domain.ErrIndexUnavailable)
	}
	if t.embedding == nil {
		return nil, fmt.Errorf("no embedding service: %w", domain.ErrEmbeddingUnavailable)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	vec, err := t.embedding.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := idx.Vector.Search(vec, domain.NewScope(chapterIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	// Hydrate excerpts; the vector index only knows IDs and scores.
	for i := range hits {
		if chunk, ok := idx.Chunk(hits[i].ChunkID); ok {
			hits[i].Excerpt = excerptHead(chunk.Text)
		}
	}
	logger.Debug("Semantic search %q (scope %d chapters): %d hits", query, len(chapterIDs), len(hits))
	return hits, nil
}

// GetChapterSummary returns a chapter summary, generating it on first
// request.
func (t *ToolService) GetChapterSummary(ctx context.Context, bookID, chapterID string) (*domain.ChapterSummary, error) {
	return t.summaries.ChapterSummary(ctx, bookID, chapterID)
}

// GetBookSynopsis returns the book synopsis, generating it on first
// request.
func (t *ToolService) GetBookSynopsis(ctx context.Context, bookID string) (*domain.BookSynopsis, error) {
	return t.summaries.Synopsis(ctx, bookID)
}

// GetChunk returns one chunk's full text by ID.
func (t *ToolService) GetChunk(ctx context.Context, bookID, chunkID string) (*domain.Chunk, error) {
	idx, err := t.registry.Get(bookID)
	if err != nil {
		return nil, err
	}
	chunk, ok := idx.Chunk(chunkID)
	if !ok {
		return nil, fmt.Errorf("chunk %s: %w", chunkID, domain.ErrNotFound)
	}
	return &chunk, nil
}

// excerptHead returns the opening of a chunk for hit previews.
func excerptHead(text string) string {
	const max = 200
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	cut := strings.LastIndex(text[:max+1], " ")
	if cut <= 0 {
		cut = max
	}
	return text[:cut] + "..."
}
