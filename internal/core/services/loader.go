package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/core/ports/driven"
	"github.com/splap/bookqa/internal/index/hnsw"
	"github.com/splap/bookqa/internal/index/lexical"
	"github.com/splap/bookqa/internal/logger"
)

// LoadBooks rebuilds in-memory indexes for every ready book in the
// store and registers them. Indexes live only for the process lifetime;
// a fresh process calls this once at startup to bring persisted books
// back online. Books whose status is not ready are skipped, and a book
// that fails to load is logged and skipped rather than aborting the
// rest.
func LoadBooks(ctx context.Context, registry *BookRegistry, bookStore driven.BookStore, concepts driven.ConceptStore) error {
	books, err := bookStore.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}
	for _, book := range books {
		if err := ctx.Err(); err != nil {
			return err
		}
		idx, err := loadBook(ctx, bookStore, concepts, book)
		if err != nil {
			logger.Warn("Skipping book %s (%s): %v", book.ID, book.Title, err)
			continue
		}
		if idx == nil {
			continue
		}
		registry.Register(idx)
	}
	return nil
}

// loadBook rebuilds one book's handle from persisted chapters, chunks
// and concept map. Returns nil with no error for books that are not in
// the ready state.
func loadBook(ctx context.Context, bookStore driven.BookStore, concepts driven.ConceptStore, book domain.Book) (*BookIndex, error) {
	status, err := bookStore.GetIndexStatus(ctx, book.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("index status: %w", err)
	}
	if status.State != domain.IndexStateReady {
		return nil, nil
	}

	chapters, err := bookStore.ListChapters(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	chunks, err := bookStore.ListChunks(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks persisted")
	}

	lex := lexical.New(chunks)

	// The semantic index is rebuilt from stored embeddings. Missing or
	// partial embeddings just mean fewer searchable chunks, exactly as
	// after ingest.
	var vector driven.VectorIndex
	if status.SemanticAvailable {
		dim := embeddingDimensions(chunks)
		if dim > 0 {
			semantic := hnsw.New(dim)
			for _, c := range chunks {
				if len(c.Embedding) != dim {
					continue
				}
				if err := semantic.Add(c.ID, c.ChapterID, c.Embedding); err != nil {
					return nil, fmt.Errorf("index chunk %s: %w", c.ID, err)
				}
			}
			if semantic.Len() > 0 {
				vector = semantic
			}
		}
		if vector == nil {
			status.SemanticAvailable = false
		}
	}

	cm, err := concepts.GetConceptMap(ctx, book.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("concept map: %w", err)
		}
		cm = &domain.ConceptMap{BookID: book.ID, Degraded: true}
	}

	return NewBookIndex(book, chapters, chunks, lex, vector, cm, *status), nil
}

// embeddingDimensions picks the vector dimensionality from the first
// embedded chunk.
func embeddingDimensions(chunks []domain.Chunk) int {
	for _, c := range chunks {
		if len(c.Embedding) > 0 {
			return len(c.Embedding)
		}
	}
	return 0
}
