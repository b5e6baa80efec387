package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splap/bookqa/internal/core/domain"
)

func TestToolService_ConceptMapLookup(t *testing.T) {
	registry, _ := testBookIndex(t, nil)
	tools := NewToolService(registry, nil, &mockSummarySvc{})

	matches, err := tools.ConceptMapLookup(context.Background(), "b1", "what happens to Victor?")
	require.NoError(t, err)
	require.Len(t, matches.Entities, 1)
	assert.Equal(t, "Victor Frankenstein", matches.Entities[0].Label)

	empty, err := tools.ConceptMapLookup(context.Background(), "b1", "weather on the moon")
	require.NoError(t, err)
	assert.True(t, empty.Empty())
}

func TestToolService_LexicalSearch(t *testing.T) {
	registry, _ := testBookIndex(t, nil)
	tools := NewToolService(registry, nil, &mockSummarySvc{})

	hits, err := tools.LexicalSearch(context.Background(), "b1", "yellow eye", nil, 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "ch001:0", hits[0].ChunkID)

	// Scope filtering.
	scoped, err := tools.LexicalSearch(context.Background(), "b1", "yellow eye", []string{"ch002"}, 5)
	require.NoError(t, err)
	assert.Empty(t, scoped)

	_, err = tools.LexicalSearch(context.Background(), "b1", "  ", nil, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestToolService_SemanticSearchUnavailable(t *testing.T) {
	registry, _ := testBookIndex(t, nil) // lexical-only book
	tools := NewToolService(registry, newMockEmbedding(), &mockSummarySvc{})

	_, err := tools.SemanticSearch(context.Background(), "b1", "horror", nil, 5)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestToolService_SemanticSearch(t *testing.T) {
	vector := &mockVector{hits: []domain.SearchHit{
		{ChunkID: "ch001:1", ChapterID: "ch001", Score: 0.93},
	}}
	registry, _ := testBookIndex(t, vector)
	tools := NewToolService(registry, newMockEmbedding(), &mockSummarySvc{})

	hits, err := tools.SemanticSearch(context.Background(), "b1", "horror at creation", nil, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "ch001:1", hits[0].ChunkID)
	assert.Contains(t, hits[0].Excerpt, "Victor fled", "excerpts are hydrated from the chunk text")
}

func TestToolService_SemanticSearchNeedsEmbedding(t *testing.T) {
	vector := &mockVector{}
	registry, _ := testBookIndex(t, vector)
	tools := NewToolService(registry, nil, &mockSummarySvc{})

	_, err := tools.SemanticSearch(context.Background(), "b1", "horror", nil, 5)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestToolService_GetChunk(t *testing.T) {
	registry, _ := testBookIndex(t, nil)
	tools := NewToolService(registry, nil, &mockSummarySvc{})

	chunk, err := tools.GetChunk(context.Background(), "b1", "ch002:0")
	require.NoError(t, err)
	assert.Contains(t, chunk.Text, "Elizabeth")

	_, err = tools.GetChunk(context.Background(), "b1", "ch009:9")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = tools.GetChunk(context.Background(), "nope", "ch001:0")
	assert.ErrorIs(t, err, domain.ErrBookNotIndexed)
}

func TestToolService_Summaries(t *testing.T) {
	registry, _ := testBookIndex(t, nil)
	tools := NewToolService(registry, nil, &mockSummarySvc{
		synopsis: &domain.BookSynopsis{BookID: "b1", Overview: "A cautionary tale."},
	})

	summary, err := tools.GetChapterSummary(context.Background(), "b1", "ch001")
	require.NoError(t, err)
	assert.Equal(t, "ch001", summary.ChapterID)

	synopsis, err := tools.GetBookSynopsis(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "A cautionary tale.", synopsis.Overview)
}
