package driving

import (
	"context"

	"github.com/splap/bookqa/internal/core/domain"
)

// BookInput describes a book to ingest.
type BookInput struct {
	// Title is the book title.
	Title string

	// Author is the book author, may be empty.
	Author string
}

// ChapterInput is one chapter's raw text in reading order.
type ChapterInput struct {
	// Title is the chapter heading, may be empty.
	Title string

	// Text is the chapter's full plain text.
	Text string
}

// IngestService builds a book's indexes from raw chapter text.
type IngestService interface {
	// Ingest runs the full pipeline: chunk, lexical index, embed,
	// semantic index, concept map, persist. It blocks until the book
	// is ready or ctx is cancelled; callers wanting background ingest
	// run it in a goroutine. Returns the new book's ID.
	// A second ingest for a book already in flight returns
	// domain.ErrIngestInProgress.
	Ingest(ctx context.Context, book BookInput, chapters []ChapterInput) (string, error)

	// Status reports a book's indexing state and counters.
	Status(ctx context.Context, bookID string) (*domain.IndexStatus, error)

	// Delete removes a book and everything derived from it.
	Delete(ctx context.Context, bookID string) error
}
