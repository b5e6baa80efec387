package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/splap/bookqa/internal/core/ports/driving"
)

var (
	ingestTitle  string
	ingestAuthor string
	ingestDelim  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a book from a plain text or markdown file",
	Long: `Ingest a book and build its indexes.

The file is split into chapters on markdown headings (#, ## or ###) or
on lines starting with "CHAPTER". A file without any such headings is
ingested as a single chapter.

Ingestion blocks until the book is ready. Without an embedding provider
the book comes up lexical-only; re-ingest after configuring one to add
semantic search.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "book title (defaults to the file name)")
	ingestCmd.Flags().StringVar(&ingestAuthor, "author", "", "book author")
	ingestCmd.Flags().StringVar(&ingestDelim, "chapter-delim", "", "custom chapter delimiter: lines starting with this prefix begin a chapter")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	title := ingestTitle
	if title == "" {
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	chapters := splitChaptersWith(string(data), ingestDelim)
	if len(chapters) == 0 {
		return fmt.Errorf("%s contains no text", path)
	}

	book := driving.BookInput{Title: title, Author: ingestAuthor}
	bookID, err := ingestService.Ingest(cmd.Context(), book, chapters)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	status, err := ingestService.Status(cmd.Context(), bookID)
	if err != nil {
		return fmt.Errorf("ingest status: %w", err)
	}

	cmd.Printf("Ingested %q as %s\n", title, bookID)
	cmd.Printf("  Chapters: %d\n", len(chapters))
	cmd.Printf("  Chunks:   %d\n", status.ChunkCount)
	if status.SemanticAvailable {
		cmd.Printf("  Embedded: %d (%d excluded)\n", status.EmbeddedCount, status.ExcludedChunks)
	} else {
		cmd.Println("  Semantic: unavailable, book is lexical-only")
	}
	return nil
}

// chapterHeading matches markdown headings and conventional chapter
// lines.
var chapterHeading = regexp.MustCompile(`(?m)^(#{1,3}\s+.+|CHAPTER\b.*|Chapter\s+[0-9IVXLC].*)$`)

// splitChaptersWith splits on a caller-supplied line prefix when one is
// given, otherwise on the default heading patterns.
func splitChaptersWith(text, delim string) []driving.ChapterInput {
	if delim == "" {
		return splitChapters(text)
	}
	pattern := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(delim) + `.*$`)
	return splitOn(text, pattern, func(heading string) string {
		return strings.TrimSpace(strings.TrimPrefix(heading, delim))
	})
}

// splitChapters cuts the text into chapters at heading lines. The
// heading becomes the chapter title; text before the first heading is
// kept as a front-matter chapter when non-empty.
func splitChapters(text string) []driving.ChapterInput {
	return splitOn(text, chapterHeading, func(heading string) string {
		return strings.TrimSpace(strings.TrimLeft(heading, "# "))
	})
}

func splitOn(text string, pattern *regexp.Regexp, title func(string) string) []driving.ChapterInput {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	locs := pattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		body := strings.TrimSpace(text)
		if body == "" {
			return nil
		}
		return []driving.ChapterInput{{Text: body}}
	}

	var chapters []driving.ChapterInput
	if front := strings.TrimSpace(text[:locs[0][0]]); front != "" {
		chapters = append(chapters, driving.ChapterInput{Text: front})
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		heading := title(strings.TrimSpace(text[loc[0]:loc[1]]))
		body := strings.TrimSpace(text[loc[1]:end])
		if body == "" {
			continue
		}
		chapters = append(chapters, driving.ChapterInput{Title: heading, Text: body})
	}
	return chapters
}
