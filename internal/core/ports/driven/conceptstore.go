package driven

import (
	"context"

	"github.com/splap/bookqa/internal/core/domain"
)

// ConceptStore persists the per-book concept map built at ingest.
type ConceptStore interface {
	// SaveConceptMap stores a book's concept map, replacing any
	// previous one.
	SaveConceptMap(ctx context.Context, cm *domain.ConceptMap) error

	// GetConceptMap retrieves a book's concept map.
	// Returns domain.ErrNotFound when the book has none.
	GetConceptMap(ctx context.Context, bookID string) (*domain.ConceptMap, error)

	// DeleteConceptMap removes a book's concept map.
	DeleteConceptMap(ctx context.Context, bookID string) error
}
