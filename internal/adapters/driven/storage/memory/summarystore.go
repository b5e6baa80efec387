package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/core/ports/driven"
)

// Ensure SummaryStore implements the interface.
var _ driven.SummaryStore = (*SummaryStore)(nil)

// SummaryStore is an in-memory implementation of driven.SummaryStore.
type SummaryStore struct {
	mu       sync.RWMutex
	chapters map[string]map[string]domain.ChapterSummary
	synopses map[string]domain.BookSynopsis
}

// NewSummaryStore creates a new in-memory summary store.
func NewSummaryStore() *SummaryStore {
	return &SummaryStore{
		chapters: make(map[string]map[string]domain.ChapterSummary),
		synopses: make(map[string]domain.BookSynopsis),
	}
}

// SaveChapterSummary stores or updates one chapter's summary.
func (s *SummaryStore) SaveChapterSummary(_ context.Context, summary *domain.ChapterSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byChapter, ok := s.chapters[summary.BookID]
	if !ok {
		byChapter = make(map[string]domain.ChapterSummary)
		s.chapters[summary.BookID] = byChapter
	}
	byChapter[summary.ChapterID] = *summary
	return nil
}

// GetChapterSummary retrieves a chapter's summary.
func (s *SummaryStore) GetChapterSummary(_ context.Context, bookID, chapterID string) (*domain.ChapterSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.chapters[bookID][chapterID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &summary, nil
}

// ListChapterSummaries returns every stored summary for a book.
func (s *SummaryStore) ListChapterSummaries(_ context.Context, bookID string) ([]domain.ChapterSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byChapter := s.chapters[bookID]
	summaries := make([]domain.ChapterSummary, 0, len(byChapter))
	for _, summary := range byChapter {
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ChapterID < summaries[j].ChapterID
	})
	return summaries, nil
}

// SaveSynopsis stores or updates the whole-book synopsis.
func (s *SummaryStore) SaveSynopsis(_ context.Context, synopsis *domain.BookSynopsis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synopses[synopsis.BookID] = *synopsis
	return nil
}

// GetSynopsis retrieves the book synopsis.
func (s *SummaryStore) GetSynopsis(_ context.Context, bookID string) (*domain.BookSynopsis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	synopsis, ok := s.synopses[bookID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &synopsis, nil
}

// DeleteSummaries removes all summaries and the synopsis for a book.
func (s *SummaryStore) DeleteSummaries(_ context.Context, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chapters, bookID)
	delete(s.synopses, bookID)
	return nil
}
