package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/core/ports/driven"
)

// --- LLM mock ---

type mockLLM struct {
	mu        sync.Mutex
	generate  func(prompt string) (string, error)
	chat      func(messages []driven.ChatMessage) (string, error)
	generates int
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.generates++
	m.mu.Unlock()
	if m.generate != nil {
		return m.generate(prompt)
	}
	return "", fmt.Errorf("no generate stub")
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	if m.chat != nil {
		return m.chat(messages)
	}
	return "", fmt.Errorf("no chat stub")
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

func (m *mockLLM) generateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generates
}

// --- Embedding mock ---

// mockEmbedding produces deterministic unit vectors from text length,
// so identical texts embed identically.
type mockEmbedding struct {
	mu        sync.Mutex
	dims      int
	failTexts map[string]bool // texts whose embedding always fails
	failBatch bool
	pingErr   error
	batches   int
}

func newMockEmbedding() *mockEmbedding {
	return &mockEmbedding{dims: 4}
}

func (m *mockEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	if m.failTexts[text] {
		return nil, fmt.Errorf("embed failed for %q", text)
	}
	v := make([]float32, m.dims)
	for i := range v {
		v[i] = float32((len(text)+i)%7) + 1
	}
	return v, nil
}

func (m *mockEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches++
	m.mu.Unlock()
	if m.failBatch {
		return nil, fmt.Errorf("batch embed failed")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int            { return m.dims }
func (m *mockEmbedding) ModelName() string          { return "mock-embed" }
func (m *mockEmbedding) Ping(context.Context) error { return m.pingErr }
func (m *mockEmbedding) Close() error               { return nil }

// --- Store mocks ---

type mockBookStore struct {
	mu       sync.Mutex
	books    map[string]domain.Book
	chapters map[string][]domain.Chapter
	chunks   map[string][]domain.Chunk
	statuses map[string]domain.IndexStatus
}

func newMockBookStore() *mockBookStore {
	return &mockBookStore{
		books:    make(map[string]domain.Book),
		chapters: make(map[string][]domain.Chapter),
		chunks:   make(map[string][]domain.Chunk),
		statuses: make(map[string]domain.IndexStatus),
	}
}

func (m *mockBookStore) SaveBook(_ context.Context, book *domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[book.ID] = *book
	return nil
}

func (m *mockBookStore) GetBook(_ context.Context, id string) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (m *mockBookStore) ListBooks(context.Context) ([]domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Book
	for _, b := range m.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *mockBookStore) SaveChapters(_ context.Context, bookID string, chapters []domain.Chapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chapters[bookID] = chapters
	return nil
}

func (m *mockBookStore) ListChapters(_ context.Context, bookID string) ([]domain.Chapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chapters[bookID], nil
}

func (m *mockBookStore) SaveChunks(_ context.Context, bookID string, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[bookID] = chunks
	return nil
}

func (m *mockBookStore) ListChunks(_ context.Context, bookID string) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chunks[bookID], nil
}

func (m *mockBookStore) GetChunk(_ context.Context, bookID, chunkID string) (*domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.chunks[bookID] {
		if c.ID == chunkID {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockBookStore) SaveIndexStatus(_ context.Context, status *domain.IndexStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[status.BookID] = *status
	return nil
}

func (m *mockBookStore) GetIndexStatus(_ context.Context, bookID string) (*domain.IndexStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.statuses[bookID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *mockBookStore) DeleteBook(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.books, id)
	delete(m.chapters, id)
	delete(m.chunks, id)
	delete(m.statuses, id)
	return nil
}

func (m *mockBookStore) Close() error { return nil }

type mockConceptStore struct {
	mu   sync.Mutex
	maps map[string]domain.ConceptMap
}

func newMockConceptStore() *mockConceptStore {
	return &mockConceptStore{maps: make(map[string]domain.ConceptMap)}
}

func (m *mockConceptStore) SaveConceptMap(_ context.Context, cm *domain.ConceptMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maps[cm.BookID] = *cm
	return nil
}

func (m *mockConceptStore) GetConceptMap(_ context.Context, bookID string) (*domain.ConceptMap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cm, ok := m.maps[bookID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cm, nil
}

func (m *mockConceptStore) DeleteConceptMap(_ context.Context, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.maps, bookID)
	return nil
}

type mockSummaryStore struct {
	mu        sync.Mutex
	summaries map[string]domain.ChapterSummary
	synopses  map[string]domain.BookSynopsis
	saves     int
}

func newMockSummaryStore() *mockSummaryStore {
	return &mockSummaryStore{
		summaries: make(map[string]domain.ChapterSummary),
		synopses:  make(map[string]domain.BookSynopsis),
	}
}

func (m *mockSummaryStore) SaveChapterSummary(_ context.Context, s *domain.ChapterSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[s.BookID+"/"+s.ChapterID] = *s
	m.saves++
	return nil
}

func (m *mockSummaryStore) GetChapterSummary(_ context.Context, bookID, chapterID string) (*domain.ChapterSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.summaries[bookID+"/"+chapterID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *mockSummaryStore) ListChapterSummaries(_ context.Context, bookID string) ([]domain.ChapterSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ChapterSummary
	for key, s := range m.summaries {
		if strings.HasPrefix(key, bookID+"/") {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChapterID < out[j].ChapterID })
	return out, nil
}

func (m *mockSummaryStore) SaveSynopsis(_ context.Context, s *domain.BookSynopsis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synopses[s.BookID] = *s
	return nil
}

func (m *mockSummaryStore) GetSynopsis(_ context.Context, bookID string) (*domain.BookSynopsis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.synopses[bookID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *mockSummaryStore) DeleteSummaries(_ context.Context, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.summaries {
		if strings.HasPrefix(key, bookID+"/") {
			delete(m.summaries, key)
		}
	}
	delete(m.synopses, bookID)
	return nil
}

// --- Prompt store mock ---

type mockPromptStore struct{}

func (mockPromptStore) Load(name string) (string, error) {
	switch name {
	case driven.PromptRoute:
		return "Book: %s\nQuestion: %s\nRespond with JSON.", nil
	case driven.PromptCanonicalize:
		return "Merge these names:\n%s", nil
	case driven.PromptEventLabel:
		return "Name the interaction between %s.\n%s", nil
	case driven.PromptChapterSummary:
		return "Summarise %q:\n%s", nil
	case driven.PromptSynopsis:
		return "Synopsis of %s.\nSummaries:\n%s\nConcepts:\n%s", nil
	case driven.PromptAnswer:
		return "Question: %s\nEvidence:\n%s", nil
	}
	return "", fmt.Errorf("unknown prompt %q", name)
}

func (mockPromptStore) Reload() {}

// --- Index mocks ---

// mockLexical returns canned hits filtered by scope.
type mockLexical struct {
	hits []domain.SearchHit
}

func (m *mockLexical) Search(_ string, scope domain.Scope, limit int) []domain.SearchHit {
	var out []domain.SearchHit
	for _, h := range m.hits {
		if scope.Contains(h.ChapterID) {
			out = append(out, h)
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

func (m *mockLexical) Size() int { return len(m.hits) }

type mockVector struct {
	hits []domain.SearchHit
	err  error
}

func (m *mockVector) Search(_ []float32, scope domain.Scope, k int) ([]domain.SearchHit, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.SearchHit
	for _, h := range m.hits {
		if scope.Contains(h.ChapterID) {
			out = append(out, h)
		}
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func (m *mockVector) Len() int        { return len(m.hits) }
func (m *mockVector) Dimensions() int { return 4 }
