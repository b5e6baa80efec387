package driving

import (
	"context"

	"github.com/splap/bookqa/internal/core/domain"
)

// SummaryService produces chapter summaries and book synopses on
// demand. Nothing is generated at ingest; results are cached and
// persisted once generated.
type SummaryService interface {
	// ChapterSummary returns the summary for one chapter, generating
	// it on first request.
	ChapterSummary(ctx context.Context, bookID, chapterID string) (*domain.ChapterSummary, error)

	// Synopsis returns the whole-book synopsis, generating missing
	// chapter summaries first.
	Synopsis(ctx context.Context, bookID string) (*domain.BookSynopsis, error)
}
