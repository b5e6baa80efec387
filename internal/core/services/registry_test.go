package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splap/bookqa/internal/core/domain"
)

func TestBookRegistry_RegisterAndGet(t *testing.T) {
	registry, idx := testBookIndex(t, nil)

	got, err := registry.Get("b1")
	require.NoError(t, err)
	assert.Equal(t, idx.Book.Title, got.Book.Title)

	_, err = registry.Get("missing")
	assert.ErrorIs(t, err, domain.ErrBookNotIndexed)
}

func TestBookRegistry_RegisterReplaces(t *testing.T) {
	registry, idx := testBookIndex(t, nil)

	replacement := NewBookIndex(
		domain.Book{ID: "b1", Title: "Frankenstein (2nd ingest)"},
		idx.Chapters, nil, &mockLexical{}, nil, nil,
		domain.IndexStatus{BookID: "b1", State: domain.IndexStateReady},
	)
	registry.Register(replacement)

	got, err := registry.Get("b1")
	require.NoError(t, err)
	assert.Equal(t, "Frankenstein (2nd ingest)", got.Book.Title)
	assert.Len(t, registry.List(), 1)
}

func TestBookRegistry_ListOrdersByTitle(t *testing.T) {
	registry, _ := testBookIndex(t, nil)
	registry.Register(NewBookIndex(
		domain.Book{ID: "b2", Title: "A Tale of Two Cities"},
		nil, nil, &mockLexical{}, nil, nil,
		domain.IndexStatus{BookID: "b2"},
	))

	books := registry.List()
	require.Len(t, books, 2)
	assert.Equal(t, "A Tale of Two Cities", books[0].Title)
	assert.Equal(t, "Frankenstein", books[1].Title)
}

func TestBookIndex_ChunkLookup(t *testing.T) {
	_, idx := testBookIndex(t, nil)

	chunk, ok := idx.Chunk("ch001:1")
	require.True(t, ok)
	assert.Equal(t, 1, chunk.Ordinal)

	_, ok = idx.Chunk("nope")
	assert.False(t, ok)

	chapterChunks := idx.ChapterChunks("ch001")
	require.Len(t, chapterChunks, 2)
	assert.Equal(t, 0, chapterChunks[0].Ordinal, "chunks come back in ordinal order")
	assert.Equal(t, 1, chapterChunks[1].Ordinal)
}

func TestSessionCache_RoundTrip(t *testing.T) {
	session, err := NewSessionCache()
	require.NoError(t, err)

	routing := domain.RoutingResult{Route: domain.RouteBook, Confidence: 0.9}
	session.PutRouting("b1", "who is victor", routing)

	got, ok := session.GetRouting("b1", "who is victor")
	require.True(t, ok)
	assert.Equal(t, routing, got)

	_, ok = session.GetRouting("b2", "who is victor")
	assert.False(t, ok, "keys are scoped per book")

	answer := &domain.Answer{Text: "Victor is the scientist."}
	session.PutAnswer("b1", "who is victor", answer)
	gotAnswer, ok := session.GetAnswer("b1", "who is victor")
	require.True(t, ok)
	assert.Equal(t, answer, gotAnswer)

	// Routing survives alongside the answer under the same key.
	_, ok = session.GetRouting("b1", "who is victor")
	assert.True(t, ok)
}

func TestSessionCache_CloseDiscardsEverything(t *testing.T) {
	session, err := NewSessionCache()
	require.NoError(t, err)

	session.PutAnswer("b1", "q", &domain.Answer{Text: "a"})
	session.Close()

	_, ok := session.GetAnswer("b1", "q")
	assert.False(t, ok)

	// Writes after close are dropped.
	session.PutAnswer("b1", "q", &domain.Answer{Text: "a"})
	_, ok = session.GetAnswer("b1", "q")
	assert.False(t, ok)
}
