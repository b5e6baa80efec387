package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/splap/bookqa/internal/adapters/driven/config/file"
	"github.com/splap/bookqa/internal/adapters/driven/storage/memory"
	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/core/ports/driving"
	"github.com/splap/bookqa/internal/core/services"
	"github.com/stretchr/testify/require"
)

// setupTestServices wires in-memory services so commands run without
// touching the real data directory. Tests overwrite individual service
// vars with stubs as needed.
func setupTestServices(t *testing.T) {
	t.Helper()

	configStore, err := file.NewConfigStore(t.TempDir())
	require.NoError(t, err)

	settingsService = services.NewSettingsService(configStore)
	bookStore = memory.NewBookStore()
	ingestService = &stubIngestService{}
	questionService = &stubQuestionService{}
	summaryService = &stubSummaryService{}
	toolService = nil
	servicesReady = true

	t.Cleanup(func() {
		settingsService = nil
		bookStore = nil
		ingestService = nil
		questionService = nil
		summaryService = nil
		toolService = nil
		servicesReady = false
	})
}

// executeCommand runs the root command with the given args and captures
// output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// --- Stubs ---

type stubIngestService struct {
	bookID      string
	status      *domain.IndexStatus
	err         error
	gotBook     driving.BookInput
	gotChapters []driving.ChapterInput
	deleted     []string
}

func (s *stubIngestService) Ingest(_ context.Context, book driving.BookInput, chapters []driving.ChapterInput) (string, error) {
	s.gotBook = book
	s.gotChapters = chapters
	return s.bookID, s.err
}

func (s *stubIngestService) Status(_ context.Context, bookID string) (*domain.IndexStatus, error) {
	if s.status == nil {
		return nil, domain.ErrNotFound
	}
	return s.status, nil
}

func (s *stubIngestService) Delete(_ context.Context, bookID string) error {
	s.deleted = append(s.deleted, bookID)
	return s.err
}

type stubQuestionService struct {
	answer      *domain.Answer
	err         error
	gotBookID   string
	gotQuestion string
}

func (s *stubQuestionService) Ask(_ context.Context, bookID, question string) (*domain.Answer, error) {
	s.gotBookID = bookID
	s.gotQuestion = question
	if s.err != nil {
		return nil, s.err
	}
	return s.answer, nil
}

type stubSummaryService struct {
	summary  *domain.ChapterSummary
	synopsis *domain.BookSynopsis
	err      error
}

func (s *stubSummaryService) ChapterSummary(context.Context, string, string) (*domain.ChapterSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

func (s *stubSummaryService) Synopsis(context.Context, string) (*domain.BookSynopsis, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.synopsis, nil
}
