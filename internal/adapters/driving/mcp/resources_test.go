package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splap/bookqa/internal/core/domain"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	}
}

func TestServer_handleBooksResource(t *testing.T) {
	ctx := context.Background()

	t.Run("lists books as JSON", func(t *testing.T) {
		lister := &mockBookLister{
			books: []domain.Book{
				{ID: "b1", Title: "Frankenstein", Author: "Mary Shelley"},
			},
		}
		server := newTestServer(t, &Ports{Tools: &mockToolSurface{}, Books: lister})

		result, err := server.handleBooksResource(ctx, readRequest(uriScheme+"books"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "Frankenstein")
		assert.Contains(t, result.Contents[0].Text, "Mary Shelley")
	})

	t.Run("empty list without lister", func(t *testing.T) {
		server := newTestServer(t, &Ports{Tools: &mockToolSurface{}})

		result, err := server.handleBooksResource(ctx, readRequest(uriScheme+"books"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})
}

func TestServer_handleChaptersResource(t *testing.T) {
	ctx := context.Background()

	lister := &mockBookLister{
		chapters: []domain.Chapter{
			{ID: "ch001", Title: "Letter 1", Ordinal: 0},
			{ID: "ch002", Title: "Chapter 1", Ordinal: 1},
		},
	}
	server := newTestServer(t, &Ports{Tools: &mockToolSurface{}, Books: lister})

	result, err := server.handleChaptersResource(ctx, readRequest(uriScheme+"books/b1/chapters"))

	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, "Letter 1")
	assert.Contains(t, result.Contents[0].Text, "ch002")
}

func TestServer_handleChunkResource(t *testing.T) {
	ctx := context.Background()

	tools := &mockToolSurface{
		chunk: &domain.Chunk{ID: "ch001:0", ChapterID: "ch001", Text: "It was a dreary night."},
	}
	server := newTestServer(t, &Ports{Tools: tools})

	result, err := server.handleChunkResource(ctx, readRequest(uriScheme+"books/b1/chunks/ch001:0"))

	require.NoError(t, err)
	assert.Equal(t, "It was a dreary night.", result.Contents[0].Text)
}

func TestExtractBookID(t *testing.T) {
	assert.Equal(t, "b1", extractBookID(uriScheme+"books/b1/chapters"))
	assert.Empty(t, extractBookID(uriScheme+"books/b1"))
	assert.Empty(t, extractBookID("https://example.com/books/b1/chapters"))
}

func TestExtractChunkIDs(t *testing.T) {
	bookID, chunkID := extractChunkIDs(uriScheme + "books/b1/chunks/ch001:0")
	assert.Equal(t, "b1", bookID)
	assert.Equal(t, "ch001:0", chunkID)

	bookID, chunkID = extractChunkIDs(uriScheme + "books/b1")
	assert.Empty(t, bookID)
	assert.Empty(t, chunkID)
}
