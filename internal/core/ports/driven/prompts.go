package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed defaults in the
// binary, letting users override individual prompts on disk.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names fall back to the embedded default when one exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next
	// access. Useful when prompts have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and
// providers.
const (
	// PromptRoute classifies a question as answerable from the book.
	// The template expects %s (book title) and %s (question).
	PromptRoute = "route"

	// PromptCanonicalize merges entity surface forms into canonical
	// names. The template expects %s (newline-separated names).
	PromptCanonicalize = "canonicalize"

	// PromptEventLabel names a recurring interaction between entities.
	// The template expects %s (participants) and %s (excerpts).
	PromptEventLabel = "event_label"

	// PromptChapterSummary summarises one chapter (or one chunk group
	// during map-reduce). The template expects %s (chapter title) and
	// %s (text).
	PromptChapterSummary = "chapter_summary"

	// PromptSynopsis builds a whole-book synopsis from chapter
	// summaries and top concepts. The template expects %s (title),
	// %s (summaries) and %s (concepts).
	PromptSynopsis = "synopsis"

	// PromptAnswer writes a grounded answer from retrieved evidence.
	// The template expects %s (question) and %s (numbered excerpts).
	PromptAnswer = "answer"
)
