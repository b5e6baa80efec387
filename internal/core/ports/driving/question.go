package driving

import (
	"context"

	"github.com/splap/bookqa/internal/core/domain"
)

// QuestionService answers free-text questions about an ingested book.
type QuestionService interface {
	// Ask routes, retrieves and answers. The returned answer is always
	// non-nil on success: budget exhaustion and missing evidence
	// produce partial or "no support" answers rather than errors.
	// Returns domain.ErrBookNotIndexed when the book is not ready.
	Ask(ctx context.Context, bookID, question string) (*domain.Answer, error)
}
