package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/splap/bookqa/internal/core/domain"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [book-id] [chapter-id]",
	Short: "Show a chapter summary, generating it on first request",
	Args:  cobra.ExactArgs(2),
	RunE:  runSummary,
}

var synopsisCmd = &cobra.Command{
	Use:   "synopsis [book-id]",
	Short: "Show the book synopsis, generating it on first request",
	Args:  cobra.ExactArgs(1),
	RunE:  runSynopsis,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(synopsisCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	if summaryService == nil {
		return errors.New("summary service not configured")
	}

	summary, err := summaryService.ChapterSummary(cmd.Context(), args[0], args[1])
	if err != nil {
		if errors.Is(err, domain.ErrLLMUnavailable) {
			return errors.New("summaries need an LLM provider, run 'bookqa config llm' to set one up")
		}
		return fmt.Errorf("chapter summary: %w", err)
	}

	cmd.Println(summary.Heading)
	if len(summary.KeyPoints) > 0 {
		cmd.Println()
		for _, p := range summary.KeyPoints {
			cmd.Printf("  - %s\n", p)
		}
	}
	if len(summary.Characters) > 0 {
		cmd.Println()
		cmd.Println("Characters:")
		for _, c := range summary.Characters {
			cmd.Printf("  - %s\n", c)
		}
	}
	return nil
}

func runSynopsis(cmd *cobra.Command, args []string) error {
	if summaryService == nil {
		return errors.New("summary service not configured")
	}

	synopsis, err := summaryService.Synopsis(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrLLMUnavailable) {
			return errors.New("synopses need an LLM provider, run 'bookqa config llm' to set one up")
		}
		return fmt.Errorf("synopsis: %w", err)
	}

	cmd.Println(synopsis.Overview)
	if len(synopsis.Characters) > 0 {
		cmd.Println()
		cmd.Println("Characters:")
		for _, c := range synopsis.Characters {
			cmd.Printf("  - %s\n", c)
		}
	}
	if len(synopsis.Themes) > 0 {
		cmd.Println()
		cmd.Println("Themes:")
		for _, th := range synopsis.Themes {
			cmd.Printf("  - %s\n", th)
		}
	}
	return nil
}
