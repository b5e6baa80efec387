package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/core/ports/driven"
)

// BookIndex is the immutable per-book handle produced by ingest. All
// retrieval runs against it; nothing mutates it after registration, so
// concurrent readers need no locking.
type BookIndex struct {
	Book     domain.Book
	Chapters []domain.Chapter

	// Lexical is always present for a ready book.
	Lexical driven.LexicalIndex

	// Vector is nil for lexical-only books.
	Vector driven.VectorIndex

	ConceptMap *domain.ConceptMap
	Status     domain.IndexStatus

	chunks map[string]domain.Chunk
}

// NewBookIndex assembles a handle. The chunk slice is copied into a
// lookup map keyed by chunk ID.
func NewBookIndex(
	book domain.Book,
	chapters []domain.Chapter,
	chunks []domain.Chunk,
	lexical driven.LexicalIndex,
	vector driven.VectorIndex,
	cm *domain.ConceptMap,
	status domain.IndexStatus,
) *BookIndex {
	byID := make(map[string]domain.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}
	return &BookIndex{
		Book:       book,
		Chapters:   chapters,
		Lexical:    lexical,
		Vector:     vector,
		ConceptMap: cm,
		Status:     status,
		chunks:     byID,
	}
}

// Chunk returns one chunk by ID.
func (b *BookIndex) Chunk(chunkID string) (domain.Chunk, bool) {
	c, ok := b.chunks[chunkID]
	return c, ok
}

// ChapterChunks returns a chapter's chunks in ordinal order.
func (b *BookIndex) ChapterChunks(chapterID string) []domain.Chunk {
	var out []domain.Chunk
	for _, c := range b.chunks {
		if c.ChapterID == chapterID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

// SemanticAvailable reports whether the semantic index can serve
// queries.
func (b *BookIndex) SemanticAvailable() bool {
	return b.Vector != nil && b.Status.SemanticAvailable
}

// BookRegistry owns the ready BookIndex handles, keyed by book ID.
// Registration replaces any previous handle for the same book, which is
// how re-ingest swaps indexes atomically.
type BookRegistry struct {
	mu    sync.RWMutex
	books map[string]*BookIndex
}

// NewBookRegistry creates an empty registry.
func NewBookRegistry() *BookRegistry {
	return &BookRegistry{books: make(map[string]*BookIndex)}
}

// Register installs a book's handle.
func (r *BookRegistry) Register(idx *BookIndex) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books[idx.Book.ID] = idx
}

// Get returns the handle for a ready book.
func (r *BookRegistry) Get(bookID string) (*BookIndex, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.books[bookID]
	if !ok {
		return nil, fmt.Errorf("book %s: %w", bookID, domain.ErrBookNotIndexed)
	}
	return idx, nil
}

// Remove discards a book's handle.
func (r *BookRegistry) Remove(bookID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.books, bookID)
}

// List returns the registered books ordered by title.
func (r *BookRegistry) List() []domain.Book {
	r.mu.RLock()
	defer r.mu.RUnlock()
	books := make([]domain.Book, 0, len(r.books))
	for _, idx := range r.books {
		books = append(books, idx.Book)
	}
	sort.Slice(books, func(i, j int) bool {
		if books[i].Title != books[j].Title {
			return books[i].Title < books[j].Title
		}
		return books[i].ID < books[j].ID
	})
	return books
}
