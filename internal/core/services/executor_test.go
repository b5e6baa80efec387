package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/core/ports/driven"
)

// mockSummarySvc serves canned summaries for executor tests.
type mockSummarySvc struct {
	synopsis     *domain.BookSynopsis
	err          error
	chapterCalls []string
}

func (m *mockSummarySvc) ChapterSummary(_ context.Context, bookID, chapterID string) (*domain.ChapterSummary, error) {
	m.chapterCalls = append(m.chapterCalls, chapterID)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ChapterSummary{
		BookID:    bookID,
		ChapterID: chapterID,
		Heading:   "Chapter",
		KeyPoints: []string{"Victor abandons the creature."},
	}, nil
}

func (m *mockSummarySvc) Synopsis(_ context.Context, bookID string) (*domain.BookSynopsis, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.synopsis != nil {
		return m.synopsis, nil
	}
	return &domain.BookSynopsis{BookID: bookID, Overview: "A scientist makes a creature."}, nil
}

// routeThenAnswer stubs the two LLM calls a grounded answer makes.
func routeThenAnswer(route string) func(prompt string) (string, error) {
	return func(prompt string) (string, error) {
		if strings.HasPrefix(prompt, "Book: ") {
			return `{"route": "` + route + `", "confidence": 0.9, "queries": ["yellow eye"]}`, nil
		}
		return "The creature's eyes were dull yellow [1].", nil
	}
}

func newTestExecutor(t *testing.T, llm *mockLLM, budget int) (*Executor, *BookRegistry) {
	t.Helper()
	registry, _ := testBookIndex(t, nil)
	session, err := NewSessionCache()
	require.NoError(t, err)

	tools := NewToolService(registry, nil, &mockSummarySvc{})

	var llmService driven.LLMService
	var router *Router
	if llm != nil {
		llmService = llm
		router = NewRouter(llm, mockPromptStore{})
	} else {
		router = NewRouter(nil, mockPromptStore{})
	}
	exec := NewExecutor(registry, router, tools, llmService, mockPromptStore{}, session, budget)
	return exec, registry
}

func TestExecutor_GroundedAnswer(t *testing.T) {
	llm := &mockLLM{generate: routeThenAnswer("BOOK")}
	exec, _ := newTestExecutor(t, llm, 0)

	answer, err := exec.Ask(context.Background(), "b1", "What color were the creature's eyes?")
	require.NoError(t, err)

	assert.True(t, answer.Grounded)
	assert.False(t, answer.Partial)
	assert.False(t, answer.NoSupport)
	assert.Contains(t, answer.Text, "yellow")
	require.NotEmpty(t, answer.Citations)
	assert.Equal(t, "ch001:0", answer.Citations[0].ChunkID)
	require.NotEmpty(t, answer.ToolCalls)
	assert.Equal(t, "route", answer.ToolCalls[0].Tool)
}

func TestExecutor_NotBookAnswersDirect(t *testing.T) {
	llm := &mockLLM{
		generate: routeThenAnswer("NOT_BOOK"),
		chat: func([]driven.ChatMessage) (string, error) {
			return "Paris is the capital of France.", nil
		},
	}
	exec, _ := newTestExecutor(t, llm, 0)

	answer, err := exec.Ask(context.Background(), "b1", "What is the capital of France?")
	require.NoError(t, err)

	assert.False(t, answer.Grounded)
	assert.Empty(t, answer.Citations)
	assert.Contains(t, answer.Text, "Paris")
}

func TestExecutor_AmbiguousReclassifiesViaConceptMap(t *testing.T) {
	llm := &mockLLM{generate: func(prompt string) (string, error) {
		if strings.HasPrefix(prompt, "Book: ") {
			return `{"route": "AMBIGUOUS", "confidence": 0.4, "queries": ["Victor laboratory"]}`, nil
		}
		return "Victor fled his laboratory [1].", nil
	}}
	exec, _ := newTestExecutor(t, llm, 0)

	answer, err := exec.Ask(context.Background(), "b1", "What did Victor do in the laboratory?")
	require.NoError(t, err)

	assert.True(t, answer.Grounded)
	tools := make([]string, 0, len(answer.ToolCalls))
	for _, c := range answer.ToolCalls {
		tools = append(tools, c.Tool)
	}
	assert.Contains(t, tools, "concept_map_lookup", "ambiguous spends exactly one lookup")
}

func TestExecutor_ShakyNotBookStillRetrieves(t *testing.T) {
	llm := &mockLLM{generate: func(prompt string) (string, error) {
		if strings.HasPrefix(prompt, "Book: ") {
			return `{"route": "NOT_BOOK", "confidence": 0.1, "queries": ["yellow eye"]}`, nil
		}
		return "The creature's eyes were dull yellow [1].", nil
	}}
	exec, _ := newTestExecutor(t, llm, 0)

	answer, err := exec.Ask(context.Background(), "b1", "What color were the creature's eyes?")
	require.NoError(t, err)

	assert.True(t, answer.Grounded, "low-confidence NOT_BOOK must not skip retrieval")
	assert.NotEmpty(t, answer.Citations)
	tools := make([]string, 0, len(answer.ToolCalls))
	for _, c := range answer.ToolCalls {
		tools = append(tools, c.Tool)
	}
	assert.Contains(t, tools, "lexical_search")
}

func TestExecutor_ConfidentNotBookAnswersDirect(t *testing.T) {
	llm := &mockLLM{
		generate: func(prompt string) (string, error) {
			return `{"route": "NOT_BOOK", "confidence": 0.95}`, nil
		},
		chat: func([]driven.ChatMessage) (string, error) {
			return "Paris is the capital of France.", nil
		},
	}
	exec, _ := newTestExecutor(t, llm, 0)

	answer, err := exec.Ask(context.Background(), "b1", "What is the capital of France?")
	require.NoError(t, err)

	assert.False(t, answer.Grounded)
	assert.Len(t, answer.ToolCalls, 1, "only the routing call")
}

func TestExecutor_SummaryQuestionFetchesChapterSummaries(t *testing.T) {
	llm := &mockLLM{generate: routeThenAnswer("BOOK")}
	registry, _ := testBookIndex(t, nil)
	session, err := NewSessionCache()
	require.NoError(t, err)
	summaries := &mockSummarySvc{}
	tools := NewToolService(registry, nil, summaries)
	exec := NewExecutor(registry, NewRouter(llm, mockPromptStore{}), tools, llm, mockPromptStore{}, session, 0)

	answer, err := exec.Ask(context.Background(), "b1", "Summarize the creature's story")
	require.NoError(t, err)

	assert.True(t, answer.Grounded)
	assert.Equal(t, []string{"ch001"}, summaries.chapterCalls, "only chapters the evidence implicates")
	var summaryArgs []string
	for _, c := range answer.ToolCalls {
		assert.NotEqual(t, "get_book_synopsis", c.Tool)
		if c.Tool == "get_chapter_summary" {
			summaryArgs = append(summaryArgs, c.Arguments)
		}
	}
	assert.Equal(t, []string{"ch001"}, summaryArgs, "each fetch is budget-counted")
}

func TestExecutor_SummaryQuestionWithoutLLMStitchesKeyPoints(t *testing.T) {
	exec, _ := newTestExecutor(t, nil, 0)

	answer, err := exec.Ask(context.Background(), "b1", "Summarize what Victor did")
	require.NoError(t, err)

	assert.True(t, answer.Grounded)
	assert.Contains(t, answer.Text, "Victor abandons the creature.")
	assert.Contains(t, answer.Text, "Relevant passages")
}

func TestExecutor_SummaryFetchStopsAtBudget(t *testing.T) {
	llm := &mockLLM{generate: routeThenAnswer("BOOK")}
	// Budget of 2: routing and one search spend it, no room for the
	// chapter summary.
	exec, _ := newTestExecutor(t, llm, 2)

	answer, err := exec.Ask(context.Background(), "b1", "Summarize the creature's story")
	require.NoError(t, err)

	assert.True(t, answer.Grounded)
	assert.True(t, answer.Partial)
	for _, c := range answer.ToolCalls {
		assert.NotEqual(t, "get_chapter_summary", c.Tool)
	}
}

func TestExecutor_BudgetExhaustedForcesPartial(t *testing.T) {
	llm := &mockLLM{generate: routeThenAnswer("BOOK")}
	// Budget of 1: routing spends it, retrieval cannot run.
	exec, _ := newTestExecutor(t, llm, 1)

	answer, err := exec.Ask(context.Background(), "b1", "What color were the creature's eyes?")
	require.NoError(t, err)

	assert.True(t, answer.Partial)
	assert.True(t, answer.NoSupport)
	assert.Len(t, answer.ToolCalls, 1)
}

func TestExecutor_SessionCacheShortCircuits(t *testing.T) {
	llm := &mockLLM{generate: routeThenAnswer("BOOK")}
	exec, _ := newTestExecutor(t, llm, 0)

	first, err := exec.Ask(context.Background(), "b1", "What color were the creature's eyes?")
	require.NoError(t, err)
	callsAfterFirst := llm.generateCalls()

	// Same question, different surface form: hits the cache.
	second, err := exec.Ask(context.Background(), "b1", "  what color were the creature's eyes??")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, llm.generateCalls(), "no new LLM calls on cache hit")
}

func TestExecutor_NoSupportListsWhatWasSearched(t *testing.T) {
	llm := &mockLLM{generate: func(prompt string) (string, error) {
		if strings.HasPrefix(prompt, "Book: ") {
			return `{"route": "BOOK", "confidence": 0.8, "queries": ["zeppelin crash"]}`, nil
		}
		return "irrelevant", nil
	}}
	exec, registry := newTestExecutor(t, llm, 0)

	// Empty the lexical hits so retrieval finds nothing.
	idx, err := registry.Get("b1")
	require.NoError(t, err)
	idx.Lexical.(*mockLexical).hits = nil

	answer, err := exec.Ask(context.Background(), "b1", "When does the zeppelin crash?")
	require.NoError(t, err)

	assert.True(t, answer.NoSupport)
	assert.Contains(t, answer.Text, "zeppelin crash")
	assert.Contains(t, answer.Text, "Frankenstein")
}

func TestExecutor_DegradedWithoutSemanticIndex(t *testing.T) {
	llm := &mockLLM{generate: func(prompt string) (string, error) {
		if strings.HasPrefix(prompt, "Book: ") {
			// A conceptual question, so semantic search would run first.
			return `{"route": "BOOK", "confidence": 0.8, "queries": ["creature horror"]}`, nil
		}
		return "Victor was horrified [1].", nil
	}}
	exec, _ := newTestExecutor(t, llm, 0)

	answer, err := exec.Ask(context.Background(), "b1", "How does Victor feel about the creature?")
	require.NoError(t, err)

	assert.True(t, answer.Degraded, "semantic-first question on a lexical-only book degrades")
	assert.True(t, answer.Grounded)
}

func TestExecutor_NoLLMStitchesEvidence(t *testing.T) {
	exec, _ := newTestExecutor(t, nil, 0)

	answer, err := exec.Ask(context.Background(), "b1", "What does the text say about Victor?")
	require.NoError(t, err)

	assert.True(t, answer.Grounded)
	assert.Contains(t, answer.Text, "Relevant passages")
	assert.NotEmpty(t, answer.Citations)
}

func TestExecutor_InvalidInput(t *testing.T) {
	exec, _ := newTestExecutor(t, nil, 0)

	_, err := exec.Ask(context.Background(), "b1", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = exec.Ask(context.Background(), "missing", "question")
	assert.ErrorIs(t, err, domain.ErrBookNotIndexed)
}

func TestExecutor_CancelledContext(t *testing.T) {
	llm := &mockLLM{generate: routeThenAnswer("BOOK")}
	exec, _ := newTestExecutor(t, llm, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Ask(ctx, "b1", "What color were the creature's eyes?")
	assert.ErrorIs(t, err, context.Canceled)

	answer, ok := exec.session.GetAnswer("b1", domain.NormalizeQuestion("What color were the creature's eyes?"))
	assert.False(t, ok, "no cache writes after cancellation")
	assert.Nil(t, answer)
}
