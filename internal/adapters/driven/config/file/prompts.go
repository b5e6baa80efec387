package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/splap/bookqa/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptRoute: `You route questions about the book "%s".

Classify the question below and respond with ONLY a JSON object, no prose:
{"route": "BOOK" | "NOT_BOOK" | "AMBIGUOUS", "confidence": 0.0-1.0, "chapter_ids": [...], "queries": [...]}

- BOOK: the question is about this book's content. Include chapter_ids if you
  can narrow the scope, and up to two short retrieval queries.
- NOT_BOOK: the question is unrelated to the book (general knowledge, chit-chat).
- AMBIGUOUS: you cannot tell without looking at the book's concept map.

Question: %s`,

	driven.PromptCanonicalize: `The following names were extracted from one book. Some are variant spellings
or partial forms of the same person, place or organisation.

Respond with ONLY a JSON object mapping every input name to its canonical
form. Names that are already canonical map to themselves. Do not invent
names that are not in the input.

Names:
%s`,

	driven.PromptEventLabel: `Name the recurring interaction between %s in a short phrase of at most
eight words, like a chapter heading. Respond with the phrase only, no
quotes and no explanation.

Excerpts:
%s`,

	driven.PromptChapterSummary: `Summarise the chapter "%s" below. Respond in exactly this format:

HEADING: <one line capturing the chapter>
KEY POINTS:
- <point>
- <point>
CHARACTERS:
- <name>

Text:
%s`,

	driven.PromptSynopsis: `Write a synopsis of the book "%s" from these chapter summaries.
Respond in exactly this format:

OVERVIEW:
<two or three paragraphs>
CHARACTERS:
- <name>
THEMES:
- <theme>

Chapter summaries:
%s

Recurring concepts:
%s`,

	driven.PromptAnswer: `Answer the question using ONLY the numbered excerpts below. Cite each
claim with the excerpt number in square brackets, like [1]. If the
excerpts do not contain the answer, say so plainly instead of guessing.

Question: %s

Excerpts:
%s`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.bookqa/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".bookqa", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# bookqa Prompts

This directory contains customisable prompts used by bookqa's LLM features.

## Files

- ` + "`route.txt`" + ` - Classifies a question before retrieval
- ` + "`canonicalize.txt`" + ` - Merges entity name variants during indexing
- ` + "`event_label.txt`" + ` - Names recurring interactions in the concept map
- ` + "`chapter_summary.txt`" + ` - Summarises one chapter
- ` + "`synopsis.txt`" + ` - Builds the whole-book synopsis
- ` + "`answer.txt`" + ` - Writes the grounded answer from retrieved excerpts

## Customisation

Edit any file to customise LLM behaviour. Changes take effect on the next
command or after restarting the server.

## Format Placeholders

Prompts use Go fmt placeholders:
- ` + "`%s`" + ` - String (e.g., the question or excerpt block)

Ensure customised prompts maintain placeholders in the correct positions.
`
	return os.WriteFile(path, []byte(content), 0600)
}
