// Package memory provides in-memory implementations of the storage
// driven ports, useful for tests and ephemeral sessions.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/core/ports/driven"
)

// Ensure BookStore implements the interface.
var _ driven.BookStore = (*BookStore)(nil)

// BookStore is an in-memory implementation of driven.BookStore.
type BookStore struct {
	mu       sync.RWMutex
	books    map[string]domain.Book
	chapters map[string][]domain.Chapter
	chunks   map[string][]domain.Chunk
	statuses map[string]domain.IndexStatus
}

// NewBookStore creates a new in-memory book store.
func NewBookStore() *BookStore {
	return &BookStore{
		books:    make(map[string]domain.Book),
		chapters: make(map[string][]domain.Chapter),
		chunks:   make(map[string][]domain.Chunk),
		statuses: make(map[string]domain.IndexStatus),
	}
}

// SaveBook stores or updates a book.
func (s *BookStore) SaveBook(_ context.Context, book *domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[book.ID] = *book
	return nil
}

// GetBook retrieves a book by ID.
func (s *BookStore) GetBook(_ context.Context, id string) (*domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, ok := s.books[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &book, nil
}

// ListBooks returns all books ordered by title.
func (s *BookStore) ListBooks(_ context.Context) ([]domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	books := make([]domain.Book, 0, len(s.books))
	for _, book := range s.books {
		books = append(books, book)
	}
	sort.Slice(books, func(i, j int) bool {
		if books[i].Title != books[j].Title {
			return books[i].Title < books[j].Title
		}
		return books[i].ID < books[j].ID
	})
	return books, nil
}

// SaveChapters stores a book's chapters, replacing any previous set.
func (s *BookStore) SaveChapters(_ context.Context, bookID string, chapters []domain.Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chapters[bookID] = append([]domain.Chapter(nil), chapters...)
	return nil
}

// ListChapters returns a book's chapters in reading order.
func (s *BookStore) ListChapters(_ context.Context, bookID string) ([]domain.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chapters := append([]domain.Chapter(nil), s.chapters[bookID]...)
	sort.Slice(chapters, func(i, j int) bool {
		return chapters[i].Ordinal < chapters[j].Ordinal
	})
	return chapters, nil
}

// SaveChunks stores a book's chunks, replacing any previous set.
func (s *BookStore) SaveChunks(_ context.Context, bookID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[bookID] = append([]domain.Chunk(nil), chunks...)
	return nil
}

// ListChunks returns all chunks for a book ordered by chapter and ordinal.
func (s *BookStore) ListChunks(_ context.Context, bookID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := append([]domain.Chunk(nil), s.chunks[bookID]...)
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].ChapterID != chunks[j].ChapterID {
			return chunks[i].ChapterID < chunks[j].ChapterID
		}
		return chunks[i].Ordinal < chunks[j].Ordinal
	})
	return chunks, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *BookStore) GetChunk(_ context.Context, bookID, chunkID string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunk := range s.chunks[bookID] {
		if chunk.ID == chunkID {
			return &chunk, nil
		}
	}
	return nil, domain.ErrNotFound
}

// SaveIndexStatus records the book's indexing state and counters.
func (s *BookStore) SaveIndexStatus(_ context.Context, status *domain.IndexStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status.BookID] = *status
	return nil
}

// GetIndexStatus retrieves the book's indexing state.
func (s *BookStore) GetIndexStatus(_ context.Context, bookID string) (*domain.IndexStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[bookID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &status, nil
}

// DeleteBook removes a book with its chapters, chunks and status.
func (s *BookStore) DeleteBook(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.books, id)
	delete(s.chapters, id)
	delete(s.chunks, id)
	delete(s.statuses, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *BookStore) Close() error {
	return nil
}
