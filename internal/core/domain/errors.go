package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid chunking or index configuration.
	// Fatal at index build; surfaced before any indexing work begins.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBookNotIndexed indicates no index exists for the requested book.
	ErrBookNotIndexed = errors.New("book not indexed")

	// ErrIndexUnavailable indicates the semantic index is degraded for
	// this book because the embedding capability was missing or failed
	// at index time. Callers fall back to lexical-only retrieval.
	ErrIndexUnavailable = errors.New("semantic index unavailable")

	// ErrLLMUnavailable indicates the LLM capability is not configured.
	// LLM-backed steps (routing, canonicalisation, labelling,
	// summarisation) degrade to deterministic fallbacks.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding capability is not
	// configured. Books ingest in lexical-only mode.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrBudgetExhausted indicates the per-question tool-call budget ran
	// out. The executor recovers by forcing a best-effort answer.
	ErrBudgetExhausted = errors.New("tool-call budget exhausted")

	// ErrIngestInProgress indicates an ingest is already running for
	// the book.
	ErrIngestInProgress = errors.New("ingest in progress")
)
