package mcp

import (
	"context"

	"github.com/splap/bookqa/internal/core/domain"
)

// mockToolSurface is a mock implementation of driving.ToolSurface.
type mockToolSurface struct {
	matches  domain.ConceptMatches
	hits     []domain.SearchHit
	summary  *domain.ChapterSummary
	synopsis *domain.BookSynopsis
	chunk    *domain.Chunk
	err      error
}

func (m *mockToolSurface) ConceptMapLookup(_ context.Context, _, _ string) (domain.ConceptMatches, error) {
	return m.matches, m.err
}

func (m *mockToolSurface) LexicalSearch(_ context.Context, _, _ string, _ []string, _ int) ([]domain.SearchHit, error) {
	return m.hits, m.err
}

func (m *mockToolSurface) SemanticSearch(_ context.Context, _, _ string, _ []string, _ int) ([]domain.SearchHit, error) {
	return m.hits, m.err
}

func (m *mockToolSurface) GetChapterSummary(_ context.Context, _, _ string) (*domain.ChapterSummary, error) {
	return m.summary, m.err
}

func (m *mockToolSurface) GetBookSynopsis(_ context.Context, _ string) (*domain.BookSynopsis, error) {
	return m.synopsis, m.err
}

func (m *mockToolSurface) GetChunk(_ context.Context, _, _ string) (*domain.Chunk, error) {
	return m.chunk, m.err
}

// mockQuestionService is a mock implementation of driving.QuestionService.
type mockQuestionService struct {
	answer *domain.Answer
	err    error
}

func (m *mockQuestionService) Ask(_ context.Context, _, _ string) (*domain.Answer, error) {
	return m.answer, m.err
}

// mockBookLister is a mock implementation of BookLister.
type mockBookLister struct {
	books    []domain.Book
	chapters []domain.Chapter
	err      error
}

func (m *mockBookLister) ListBooks(_ context.Context) ([]domain.Book, error) {
	return m.books, m.err
}

func (m *mockBookLister) ListChapters(_ context.Context, _ string) ([]domain.Chapter, error) {
	return m.chapters, m.err
}
