package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splap/bookqa/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with citations", func(t *testing.T) {
		question := &mockQuestionService{
			answer: &domain.Answer{
				Text:     "Victor fled the laboratory. [1]",
				Grounded: true,
				Citations: []domain.Citation{
					{ChunkID: "ch001:1", ChapterID: "ch001", Excerpt: "Victor fled"},
				},
				ToolCalls: []domain.ToolCallRecord{{Tool: "route"}, {Tool: "lexical_search"}},
			},
		}
		server := newTestServer(t, &Ports{Tools: &mockToolSurface{}, Question: question})

		_, output, err := server.handleAsk(ctx, nil, AskInput{BookID: "b1", Question: "What did Victor do?"})

		require.NoError(t, err)
		assert.True(t, output.Grounded)
		assert.Equal(t, 2, output.ToolCalls)
		require.Len(t, output.Citations, 1)
		assert.Equal(t, "ch001:1", output.Citations[0].ChunkID)
	})

	t.Run("propagates errors", func(t *testing.T) {
		question := &mockQuestionService{err: domain.ErrBookNotIndexed}
		server := newTestServer(t, &Ports{Tools: &mockToolSurface{}, Question: question})

		_, _, err := server.handleAsk(ctx, nil, AskInput{BookID: "nope", Question: "?"})
		assert.ErrorIs(t, err, domain.ErrBookNotIndexed)
	})
}

func TestServer_handleConceptMapLookup(t *testing.T) {
	ctx := context.Background()

	tools := &mockToolSurface{
		matches: domain.ConceptMatches{
			Entities: []domain.ConceptItem{{
				ID:         "entity-000",
				Label:      "Victor Frankenstein",
				Kind:       domain.KindEntity,
				Aliases:    []string{"Victor"},
				ChapterIDs: []string{"ch001"},
			}},
		},
	}
	server := newTestServer(t, &Ports{Tools: tools})

	_, output, err := server.handleConceptMapLookup(ctx, nil, LookupInput{BookID: "b1", Query: "Victor"})

	require.NoError(t, err)
	require.Len(t, output.Entities, 1)
	assert.Equal(t, "Victor Frankenstein", output.Entities[0].Label)
	assert.Equal(t, "entity", output.Entities[0].Kind)
	assert.Empty(t, output.Themes)
}

func TestServer_handleLexicalSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns hits", func(t *testing.T) {
		tools := &mockToolSurface{
			hits: []domain.SearchHit{
				{ChunkID: "ch001:0", ChapterID: "ch001", Score: 4.2, Excerpt: "dull yellow eye"},
			},
		}
		server := newTestServer(t, &Ports{Tools: tools})

		_, output, err := server.handleLexicalSearch(ctx, nil, SearchInput{BookID: "b1", Query: "yellow eye"})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, "ch001:0", output.Hits[0].ChunkID)
		assert.Equal(t, 4.2, output.Hits[0].Score)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		tools := &mockToolSurface{err: errors.New("index gone")}
		server := newTestServer(t, &Ports{Tools: tools})

		_, _, err := server.handleLexicalSearch(ctx, nil, SearchInput{BookID: "b1", Query: "q"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index gone")
	})
}

func TestServer_handleSemanticSearch_Unavailable(t *testing.T) {
	tools := &mockToolSurface{err: domain.ErrIndexUnavailable}
	server := newTestServer(t, &Ports{Tools: tools})

	_, _, err := server.handleSemanticSearch(context.Background(), nil, SearchInput{BookID: "b1", Query: "q"})
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestServer_handleChapterSummary(t *testing.T) {
	tools := &mockToolSurface{
		summary: &domain.ChapterSummary{
			ChapterID: "ch001",
			Heading:   "Walton writes to his sister",
			KeyPoints: []string{"The expedition begins"},
		},
	}
	server := newTestServer(t, &Ports{Tools: tools})

	_, output, err := server.handleChapterSummary(context.Background(), nil,
		ChapterSummaryInput{BookID: "b1", ChapterID: "ch001"})

	require.NoError(t, err)
	assert.Equal(t, "Walton writes to his sister", output.Heading)
	assert.Len(t, output.KeyPoints, 1)
}

func TestServer_handleSynopsis(t *testing.T) {
	tools := &mockToolSurface{
		synopsis: &domain.BookSynopsis{
			Overview: "A scientist builds a creature and abandons it.",
			Themes:   []string{"ambition"},
		},
	}
	server := newTestServer(t, &Ports{Tools: tools})

	_, output, err := server.handleSynopsis(context.Background(), nil, SynopsisInput{BookID: "b1"})

	require.NoError(t, err)
	assert.Contains(t, output.Overview, "creature")
	assert.Equal(t, []string{"ambition"}, output.Themes)
}

func TestServer_handleChunk(t *testing.T) {
	tools := &mockToolSurface{
		chunk: &domain.Chunk{
			ID:        "ch001:1",
			ChapterID: "ch001",
			Text:      "Victor fled the laboratory.",
		},
	}
	server := newTestServer(t, &Ports{Tools: tools})

	_, output, err := server.handleChunk(context.Background(), nil,
		ChunkInput{BookID: "b1", ChunkID: "ch001:1"})

	require.NoError(t, err)
	assert.Equal(t, "ch001:1", output.ChunkID)
	assert.Equal(t, "Victor fled the laboratory.", output.Text)
}
