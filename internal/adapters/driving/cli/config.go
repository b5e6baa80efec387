package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/splap/bookqa/internal/core/domain"
)

var (
	configModel  string
	configAPIKey string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage application settings",
	Long: `View and configure AI providers, chunking and the tool budget.

Use subcommands to change specific settings; without one, the current
settings are printed.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runConfigShow,
}

var configEmbeddingCmd = &cobra.Command{
	Use:   "embedding [provider]",
	Short: "Configure the embedding provider",
	Long: `Configure the embedding provider for semantic search.

Available providers:
  ollama  - local Ollama instance (no API key)
  openai  - OpenAI cloud API (API key required)

Books indexed before an embedding provider was configured stay
lexical-only until re-ingested.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigEmbedding,
}

var configLLMCmd = &cobra.Command{
	Use:   "llm [provider]",
	Short: "Configure the LLM provider",
	Long: `Configure the LLM provider used for routing, summaries, the concept
map's entity merging and answer composition.

Available providers:
  ollama     - local Ollama instance (no API key)
  openai     - OpenAI cloud API (API key required)
  anthropic  - Anthropic cloud API (API key required)`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigLLM,
}

var configBudgetCmd = &cobra.Command{
	Use:   "budget [n]",
	Short: "Set the per-question tool call budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigBudget,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configEmbeddingCmd.Flags().StringVar(&configModel, "model", "", "model name (defaults per provider)")
	configEmbeddingCmd.Flags().StringVar(&configAPIKey, "api-key", "", "API key (prompted when omitted)")
	configLLMCmd.Flags().StringVar(&configModel, "model", "", "model name (defaults per provider)")
	configLLMCmd.Flags().StringVar(&configAPIKey, "api-key", "", "API key (prompted when omitted)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEmbeddingCmd)
	configCmd.AddCommand(configLLMCmd)
	configCmd.AddCommand(configBudgetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("[Embedding]")
	printProviderSettings(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[LLM]")
	printProviderSettings(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Chunk tokens: %d\n", settings.Chunking.ChunkTokens)
	cmd.Printf("  Overlap:      %.0f%%\n", settings.Chunking.OverlapFraction*100)
	cmd.Println()

	cmd.Println("[Answer]")
	cmd.Printf("  Tool budget: %d\n", settings.ToolBudget)
	return nil
}

func printProviderSettings(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", model)
	if provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runConfigEmbedding(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider := domain.AIProvider(args[0])
	apiKey := configAPIKey
	if provider.RequiresAPIKey() && apiKey == "" {
		cmd.Printf("API key for %s: ", provider)
		apiKey = readPassword()
		cmd.Println()
	}

	if err := settingsService.SetEmbeddingProvider(provider, configModel, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}
	cmd.Printf("Embedding provider set to %s\n", provider.Description())
	cmd.Println("Re-ingest existing books to enable semantic search on them.")
	return nil
}

func runConfigLLM(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider := domain.AIProvider(args[0])
	apiKey := configAPIKey
	if provider.RequiresAPIKey() && apiKey == "" {
		cmd.Printf("API key for %s: ", provider)
		apiKey = readPassword()
		cmd.Println()
	}

	if err := settingsService.SetLLMProvider(provider, configModel, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}
	cmd.Printf("LLM provider set to %s\n", provider.Description())
	return nil
}

func runConfigBudget(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	budget, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("budget must be a number: %w", err)
	}
	if err := settingsService.SetToolBudget(budget); err != nil {
		return err
	}
	cmd.Printf("Tool budget set to %d\n", budget)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	cmd.Println(settingsService.Path())
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
