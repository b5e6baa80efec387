package memory

import (
	"context"
	"sync"

	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/core/ports/driven"
)

// Ensure ConceptStore implements the interface.
var _ driven.ConceptStore = (*ConceptStore)(nil)

// ConceptStore is an in-memory implementation of driven.ConceptStore.
type ConceptStore struct {
	mu   sync.RWMutex
	maps map[string]domain.ConceptMap
}

// NewConceptStore creates a new in-memory concept store.
func NewConceptStore() *ConceptStore {
	return &ConceptStore{
		maps: make(map[string]domain.ConceptMap),
	}
}

// SaveConceptMap stores a book's concept map, replacing any previous one.
func (s *ConceptStore) SaveConceptMap(_ context.Context, cm *domain.ConceptMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maps[cm.BookID] = *cm
	return nil
}

// GetConceptMap retrieves a book's concept map.
func (s *ConceptStore) GetConceptMap(_ context.Context, bookID string) (*domain.ConceptMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cm, ok := s.maps[bookID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cm, nil
}

// DeleteConceptMap removes a book's concept map.
func (s *ConceptStore) DeleteConceptMap(_ context.Context, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.maps, bookID)
	return nil
}
