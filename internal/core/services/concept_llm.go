package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/splap/bookqa/internal/conceptmap"
	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/core/ports/driven"
)

// Ensure the adapters satisfy the builder's capabilities.
var (
	_ conceptmap.Canonicalizer = (*LLMCanonicalizer)(nil)
	_ conceptmap.Labeler       = (*LLMLabeler)(nil)
)

// LLMCanonicalizer merges entity surface forms via the language model.
// The builder falls back to deterministic normalisation when a call
// fails, so errors here are reported, not papered over.
type LLMCanonicalizer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewLLMCanonicalizer creates the canonicalizer. Callers without an
// LLM pass a nil Canonicalizer to the builder instead.
func NewLLMCanonicalizer(llm driven.LLMService, prompts driven.PromptStore) *LLMCanonicalizer {
	return &LLMCanonicalizer{llm: llm, prompts: prompts}
}

// Canonicalize maps each surface form to a canonical name. The prompt
// demands a flat JSON object {"surface": "canonical", ...}.
func (c *LLMCanonicalizer) Canonicalize(ctx context.Context, names []string) (map[string]string, error) {
	template, err := c.prompts.Load(driven.PromptCanonicalize)
	if err != nil {
		return nil, fmt.Errorf("load canonicalize prompt: %w", err)
	}
	prompt := fmt.Sprintf(template, strings.Join(names, "\n"))

	raw, err := c.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   2048,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrLLMUnavailable, err)
	}

	var mapping map[string]string
	if err := json.Unmarshal([]byte(extractJSON(raw)), &mapping); err != nil {
		return nil, fmt.Errorf("parse canonicalize response: %w", err)
	}
	return mapping, nil
}

// LLMLabeler names recurring entity interactions via the language
// model.
type LLMLabeler struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewLLMLabeler creates the labeler. Callers without an LLM pass a
// nil Labeler to the builder instead.
func NewLLMLabeler(llm driven.LLMService, prompts driven.PromptStore) *LLMLabeler {
	return &LLMLabeler{llm: llm, prompts: prompts}
}

// LabelEvent produces a short label for the interaction between the
// participants.
func (l *LLMLabeler) LabelEvent(ctx context.Context, participants []string, excerpts []string) (string, error) {
	template, err := l.prompts.Load(driven.PromptEventLabel)
	if err != nil {
		return "", fmt.Errorf("load event label prompt: %w", err)
	}
	prompt := fmt.Sprintf(template, strings.Join(participants, " and "), strings.Join(excerpts, "\n---\n"))

	raw, err := l.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   64,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrLLMUnavailable, err)
	}

	label := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), "\""))
	// Single line only; models sometimes add commentary.
	if i := strings.IndexByte(label, '\n'); i >= 0 {
		label = strings.TrimSpace(label[:i])
	}
	return label, nil
}
