package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splap/bookqa/internal/core/domain"
)

func TestBooksCommandEmpty(t *testing.T) {
	setupTestServices(t)

	output, err := executeCommand(t, "books")
	require.NoError(t, err)
	assert.Contains(t, output, "No books ingested yet")
}

func TestBooksCommandList(t *testing.T) {
	setupTestServices(t)
	ctx := context.Background()
	require.NoError(t, bookStore.SaveBook(ctx, &domain.Book{ID: "b1", Title: "Dracula", Author: "Bram Stoker"}))
	require.NoError(t, bookStore.SaveBook(ctx, &domain.Book{ID: "b2", Title: "Frankenstein"}))

	output, err := executeCommand(t, "books")
	require.NoError(t, err)
	assert.Contains(t, output, "b1  Dracula by Bram Stoker")
	assert.Contains(t, output, "b2  Frankenstein")
}

func TestBooksStatusCommand(t *testing.T) {
	setupTestServices(t)
	ingestService = &stubIngestService{
		status: &domain.IndexStatus{
			BookID:            "b1",
			State:             domain.IndexStateReady,
			ChunkCount:        120,
			EmbeddedCount:     118,
			ExcludedChunks:    2,
			SemanticAvailable: true,
		},
	}

	output, err := executeCommand(t, "books", "status", "b1")
	require.NoError(t, err)
	assert.Contains(t, output, "State:    ready")
	assert.Contains(t, output, "Chunks:   120")
	assert.Contains(t, output, "Embedded: 118 (2 excluded)")
	assert.Contains(t, output, "Semantic: available")
}

func TestBooksStatusCommandUnknownBook(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "books", "status", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no book with ID missing")
}

func TestBooksDeleteCommand(t *testing.T) {
	setupTestServices(t)
	stub := &stubIngestService{}
	ingestService = stub

	output, err := executeCommand(t, "books", "delete", "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, stub.deleted)
	assert.Contains(t, output, "Deleted book b1")
}
