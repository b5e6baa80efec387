package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/splap/bookqa/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [book-id] [question]",
	Short: "Ask a question about an ingested book",
	Long: `Ask a free-text question about a book.

The question is routed to the relevant chapters, evidence is retrieved
from the indexes, and the answer is composed with citations back to the
text. Without an LLM provider the answer degrades to the raw evidence
excerpts.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}

	bookID := args[0]
	question := strings.Join(args[1:], " ")

	answer, err := questionService.Ask(cmd.Context(), bookID, question)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotIndexed) {
			return fmt.Errorf("book %s is not indexed, run 'bookqa books' to list books", bookID)
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	return outputAnswerText(cmd, answer)
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer) error {
	cmd.Println(answer.Text)

	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Citations:")
		for i, c := range answer.Citations {
			cmd.Printf("  [%d] %s (%s)\n", i+1, c.ChunkID, c.ChapterID)
		}
	}

	var notes []string
	if answer.NoSupport {
		notes = append(notes, "the book does not appear to address this")
	}
	if answer.Partial {
		notes = append(notes, "partial: the tool budget ran out before retrieval finished")
	}
	if answer.Degraded {
		notes = append(notes, "degraded: composed without a language model")
	}
	if len(notes) > 0 {
		cmd.Println()
		cmd.Printf("Note: %s\n", strings.Join(notes, "; "))
	}
	return nil
}
