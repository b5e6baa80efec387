package driven

import (
	"context"

	"github.com/splap/bookqa/internal/core/domain"
)

// BookStore persists books, chapters and chunks.
// Backed by SQLite for durable storage, or memory for tests.
type BookStore interface {
	// SaveBook stores or updates a book.
	SaveBook(ctx context.Context, book *domain.Book) error

	// GetBook retrieves a book by ID.
	GetBook(ctx context.Context, id string) (*domain.Book, error)

	// ListBooks returns all books ordered by title.
	ListBooks(ctx context.Context) ([]domain.Book, error)

	// SaveChapters stores the chapters of a book, replacing any
	// previous set.
	SaveChapters(ctx context.Context, bookID string, chapters []domain.Chapter) error

	// ListChapters returns a book's chapters in reading order.
	ListChapters(ctx context.Context, bookID string) ([]domain.Chapter, error)

	// SaveChunks stores chunks for a book, replacing any previous set.
	// Embeddings are stored alongside the text when present.
	SaveChunks(ctx context.Context, bookID string, chunks []domain.Chunk) error

	// ListChunks returns all chunks for a book ordered by chapter and
	// ordinal.
	ListChunks(ctx context.Context, bookID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, bookID, chunkID string) (*domain.Chunk, error)

	// SaveIndexStatus records the book's indexing state and counters.
	SaveIndexStatus(ctx context.Context, status *domain.IndexStatus) error

	// GetIndexStatus retrieves the book's indexing state.
	GetIndexStatus(ctx context.Context, bookID string) (*domain.IndexStatus, error)

	// DeleteBook removes a book with its chapters, chunks and status.
	DeleteBook(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}
