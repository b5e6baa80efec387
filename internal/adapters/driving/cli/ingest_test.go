package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splap/bookqa/internal/core/domain"
)

func TestSplitChapters_MarkdownHeadings(t *testing.T) {
	text := "# Chapter One\n\nIt was a dark night.\n\n## Chapter Two\n\nThe storm broke.\n"

	chapters := splitChapters(text)
	require.Len(t, chapters, 2)
	assert.Equal(t, "Chapter One", chapters[0].Title)
	assert.Equal(t, "It was a dark night.", chapters[0].Text)
	assert.Equal(t, "Chapter Two", chapters[1].Title)
	assert.Equal(t, "The storm broke.", chapters[1].Text)
}

func TestSplitChapters_ChapterLines(t *testing.T) {
	text := "CHAPTER I\nThe beginning.\nCHAPTER II\nThe middle.\n"

	chapters := splitChapters(text)
	require.Len(t, chapters, 2)
	assert.Equal(t, "CHAPTER I", chapters[0].Title)
	assert.Equal(t, "The beginning.", chapters[0].Text)
	assert.Equal(t, "CHAPTER II", chapters[1].Title)
}

func TestSplitChapters_NoHeadings(t *testing.T) {
	chapters := splitChapters("Just one long stretch of prose.\nNothing more.")
	require.Len(t, chapters, 1)
	assert.Empty(t, chapters[0].Title)
	assert.Contains(t, chapters[0].Text, "long stretch")
}

func TestSplitChapters_FrontMatter(t *testing.T) {
	text := "A preface before any heading.\n\n# One\n\nBody.\n"

	chapters := splitChapters(text)
	require.Len(t, chapters, 2)
	assert.Empty(t, chapters[0].Title)
	assert.Equal(t, "A preface before any heading.", chapters[0].Text)
	assert.Equal(t, "One", chapters[1].Title)
}

func TestSplitChapters_Empty(t *testing.T) {
	assert.Empty(t, splitChapters("   \n\n  "))
}

func TestSplitChaptersWith_CustomDelimiter(t *testing.T) {
	text := "*** Part One\nThe start.\n*** Part Two\nThe end.\n"

	chapters := splitChaptersWith(text, "***")
	require.Len(t, chapters, 2)
	assert.Equal(t, "Part One", chapters[0].Title)
	assert.Equal(t, "The start.", chapters[0].Text)
	assert.Equal(t, "Part Two", chapters[1].Title)
}

func TestIngestCommand(t *testing.T) {
	setupTestServices(t)
	stub := &stubIngestService{
		bookID: "book-42",
		status: &domain.IndexStatus{
			BookID:            "book-42",
			State:             domain.IndexStateReady,
			ChunkCount:        7,
			EmbeddedCount:     7,
			SemanticAvailable: true,
		},
	}
	ingestService = stub

	path := filepath.Join(t.TempDir(), "frankenstein.md")
	require.NoError(t, os.WriteFile(path, []byte("# Letter 1\n\nTo Mrs. Saville, England.\n"), 0o600))

	output, err := executeCommand(t, "ingest", path, "--title", "Frankenstein", "--author", "Mary Shelley")
	require.NoError(t, err)

	assert.Equal(t, "Frankenstein", stub.gotBook.Title)
	assert.Equal(t, "Mary Shelley", stub.gotBook.Author)
	require.Len(t, stub.gotChapters, 1)
	assert.Contains(t, output, "book-42")
	assert.Contains(t, output, "Chunks:   7")
	assert.Contains(t, output, "Embedded: 7")
}

func TestIngestCommandDefaultsTitleToFileName(t *testing.T) {
	setupTestServices(t)
	stub := &stubIngestService{
		bookID: "book-1",
		status: &domain.IndexStatus{BookID: "book-1", State: domain.IndexStateReady, ChunkCount: 1},
	}
	ingestService = stub
	ingestTitle = ""
	ingestAuthor = ""
	ingestDelim = ""

	path := filepath.Join(t.TempDir(), "dracula.txt")
	require.NoError(t, os.WriteFile(path, []byte("Jonathan Harker's Journal.\n"), 0o600))

	output, err := executeCommand(t, "ingest", path)
	require.NoError(t, err)
	assert.Equal(t, "dracula", stub.gotBook.Title)
	assert.Contains(t, output, "lexical-only")
}

func TestIngestCommandMissingFile(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "ingest", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}
