package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/splap/bookqa/internal/adapters/driven/ai"
	"github.com/splap/bookqa/internal/adapters/driven/config/file"
	"github.com/splap/bookqa/internal/adapters/driven/storage/sqlite"
	"github.com/splap/bookqa/internal/chunker"
	"github.com/splap/bookqa/internal/conceptmap"
	"github.com/splap/bookqa/internal/core/ports/driven"
	"github.com/splap/bookqa/internal/core/ports/driving"
	"github.com/splap/bookqa/internal/core/services"
	"github.com/splap/bookqa/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services wired by ensureServices on first command run. Tests assign
// these directly and set servicesReady.
var (
	settingsService *services.SettingsService
	ingestService   driving.IngestService
	questionService driving.QuestionService
	summaryService  driving.SummaryService
	toolService     driving.ToolSurface
	bookStore       driven.BookStore

	sqlStore      *sqlite.Store
	aiResult      *ai.InitResult
	servicesReady bool
)

var rootCmd = &cobra.Command{
	Use:   "bookqa",
	Short: "Question answering over books",
	Long: `bookqa ingests books, builds lexical and semantic indexes with a
concept map per book, and answers free-text questions grounded in the
text. It also serves the retrieval tools to AI assistants over MCP.

Books come up lexical-only when no embedding provider is configured;
run 'bookqa config' to set up providers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		// version and help need no services.
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return ensureServices(cmd)
	},
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// ensureServices opens the stores, creates the AI providers from
// settings and wires the core services. Missing or unreachable AI
// providers degrade to warnings; retrieval then runs lexical-only.
func ensureServices(cmd *cobra.Command) error {
	if servicesReady {
		return nil
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	promptStore, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("open prompts: %w", err)
	}
	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	sqlStore = store

	settingsService = services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return err
	}

	aiResult = ai.Init(*settings)
	for _, w := range aiResult.Warnings {
		cmd.PrintErrf("Warning: %s\n", w)
	}

	registry := services.NewBookRegistry()
	if err := services.LoadBooks(cmd.Context(), registry, store.BookStore(), store.ConceptStore()); err != nil {
		return fmt.Errorf("load books: %w", err)
	}

	splitter, err := chunker.New(settings.Chunking)
	if err != nil {
		return fmt.Errorf("chunker: %w", err)
	}

	var canonicalizer conceptmap.Canonicalizer
	var labeler conceptmap.Labeler
	if aiResult.LLMService != nil {
		canonicalizer = services.NewLLMCanonicalizer(aiResult.LLMService, promptStore)
		labeler = services.NewLLMLabeler(aiResult.LLMService, promptStore)
	}
	builder := conceptmap.NewBuilder(canonicalizer, labeler)

	summarySvc, err := services.NewSummaryService(registry, aiResult.LLMService, promptStore, store.SummaryStore())
	if err != nil {
		return fmt.Errorf("summary service: %w", err)
	}

	ingestSvc := services.NewIngestService(
		registry,
		store.BookStore(),
		store.ConceptStore(),
		store.SummaryStore(),
		aiResult.EmbeddingService,
		builder,
		splitter,
	)
	ingestSvc.SetSummaryService(summarySvc)

	toolSvc := services.NewToolService(registry, aiResult.EmbeddingService, summarySvc)
	router := services.NewRouter(aiResult.LLMService, promptStore)
	session, err := services.NewSessionCache()
	if err != nil {
		return fmt.Errorf("session cache: %w", err)
	}
	executor := services.NewExecutor(
		registry,
		router,
		toolSvc,
		aiResult.LLMService,
		promptStore,
		session,
		settings.ToolBudget,
	)

	ingestService = ingestSvc
	questionService = executor
	summaryService = summarySvc
	toolService = toolSvc
	bookStore = store.BookStore()
	servicesReady = true
	return nil
}

func closeServices() {
	if aiResult != nil {
		aiResult.Close()
	}
	if sqlStore != nil {
		_ = sqlStore.Close()
	}
}
