package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/splap/bookqa/internal/core/domain"
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List and manage ingested books",
	RunE:  runBooksList,
}

var booksStatusCmd = &cobra.Command{
	Use:   "status [book-id]",
	Short: "Show a book's indexing status",
	Args:  cobra.ExactArgs(1),
	RunE:  runBooksStatus,
}

var booksDeleteCmd = &cobra.Command{
	Use:   "delete [book-id]",
	Short: "Delete a book and everything derived from it",
	Args:  cobra.ExactArgs(1),
	RunE:  runBooksDelete,
}

func init() {
	booksCmd.AddCommand(booksStatusCmd)
	booksCmd.AddCommand(booksDeleteCmd)
	rootCmd.AddCommand(booksCmd)
}

func runBooksList(cmd *cobra.Command, _ []string) error {
	if bookStore == nil {
		return errors.New("book store not configured")
	}

	books, err := bookStore.ListBooks(cmd.Context())
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}
	if len(books) == 0 {
		cmd.Println("No books ingested yet. Run 'bookqa ingest <file>' to add one.")
		return nil
	}

	for _, b := range books {
		line := b.Title
		if b.Author != "" {
			line += " by " + b.Author
		}
		cmd.Printf("  %s  %s\n", b.ID, line)
	}
	return nil
}

func runBooksStatus(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	status, err := ingestService.Status(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrBookNotIndexed) {
			return fmt.Errorf("no book with ID %s", args[0])
		}
		return fmt.Errorf("status: %w", err)
	}

	cmd.Printf("Book %s\n", status.BookID)
	cmd.Printf("  State:    %s\n", status.State)
	cmd.Printf("  Chunks:   %d\n", status.ChunkCount)
	cmd.Printf("  Embedded: %d (%d excluded)\n", status.EmbeddedCount, status.ExcludedChunks)
	if status.SemanticAvailable {
		cmd.Println("  Semantic: available")
	} else {
		cmd.Println("  Semantic: unavailable, lexical-only")
	}
	if status.Err != "" {
		cmd.Printf("  Error:    %s\n", status.Err)
	}
	return nil
}

func runBooksDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	cmd.Printf("Deleted book %s\n", args[0])
	return nil
}
