package driven

import (
	"context"

	"github.com/splap/bookqa/internal/core/domain"
)

// SummaryStore persists lazily generated chapter summaries and book
// synopses. Entries survive restarts and are only invalidated by
// re-ingesting the book.
type SummaryStore interface {
	// SaveChapterSummary stores or updates one chapter's summary.
	SaveChapterSummary(ctx context.Context, summary *domain.ChapterSummary) error

	// GetChapterSummary retrieves a chapter's summary.
	// Returns domain.ErrNotFound when none has been generated yet.
	GetChapterSummary(ctx context.Context, bookID, chapterID string) (*domain.ChapterSummary, error)

	// ListChapterSummaries returns every stored summary for a book in
	// reading order.
	ListChapterSummaries(ctx context.Context, bookID string) ([]domain.ChapterSummary, error)

	// SaveSynopsis stores or updates the whole-book synopsis.
	SaveSynopsis(ctx context.Context, synopsis *domain.BookSynopsis) error

	// GetSynopsis retrieves the book synopsis.
	// Returns domain.ErrNotFound when none has been generated yet.
	GetSynopsis(ctx context.Context, bookID string) (*domain.BookSynopsis, error)

	// DeleteSummaries removes all summaries and the synopsis for a book.
	DeleteSummaries(ctx context.Context, bookID string) error
}
