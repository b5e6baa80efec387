package domain

import "fmt"

// Default chunking parameters. Token counts, not characters.
const (
	// DefaultChunkTokens is the default chunk size in tokens.
	DefaultChunkTokens = 800

	// DefaultOverlapFraction is the default overlap between consecutive
	// chunks as a fraction of chunk size.
	DefaultOverlapFraction = 0.10

	// MinChunkTokens and MaxChunkTokens bound the per-book override range.
	MinChunkTokens = 512
	MaxChunkTokens = 1024
)

// Chunk is the minimal addressable unit of book text used for retrieval.
// Chunks are immutable once created. The ID is stable and acts as the
// join key between the lexical index, the semantic index and citations.
type Chunk struct {
	// ID is "<chapter_id>:<ordinal>". Deterministic so that re-running
	// the chunker on identical input yields identical IDs.
	ID string

	// BookID links to the owning Book.
	BookID string

	// ChapterID links to the owning Chapter.
	ChapterID string

	// Ordinal is the reading-order position within the chapter.
	Ordinal int

	// StartOffset and EndOffset are byte offsets into the chapter text.
	// Consecutive chunks overlap; EndOffset of the final chunk equals
	// the chapter's length.
	StartOffset int
	EndOffset   int

	// Text is the chunk content.
	Text string

	// TokenCount is the number of tokens in Text.
	TokenCount int

	// Embedding is the vector representation for semantic search.
	// Nil when the chunk was excluded from the semantic index.
	Embedding []float32
}

// ChunkID builds the deterministic chunk identifier.
func ChunkID(chapterID string, ordinal int) string {
	return fmt.Sprintf("%s:%d", chapterID, ordinal)
}

// ChunkingConfig controls how chapter text is split into chunks.
type ChunkingConfig struct {
	// ChunkTokens is the target chunk size in tokens.
	ChunkTokens int

	// OverlapFraction is the overlap between consecutive chunks as a
	// fraction of ChunkTokens.
	OverlapFraction float64
}

// DefaultChunkingConfig returns the standard chunking parameters.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		ChunkTokens:     DefaultChunkTokens,
		OverlapFraction: DefaultOverlapFraction,
	}
}

// OverlapTokens returns the configured overlap in whole tokens.
func (c ChunkingConfig) OverlapTokens() int {
	return int(float64(c.ChunkTokens) * c.OverlapFraction)
}

// Validate checks the configuration before any indexing work begins.
func (c ChunkingConfig) Validate() error {
	if c.ChunkTokens < MinChunkTokens || c.ChunkTokens > MaxChunkTokens {
		return fmt.Errorf("%w: chunk size %d outside [%d, %d]",
			ErrInvalidConfig, c.ChunkTokens, MinChunkTokens, MaxChunkTokens)
	}
	if c.OverlapFraction < 0 || c.OverlapFraction >= 1 {
		return fmt.Errorf("%w: overlap fraction %.2f outside [0, 1)",
			ErrInvalidConfig, c.OverlapFraction)
	}
	if c.ChunkTokens <= c.OverlapTokens() {
		return fmt.Errorf("%w: chunk size %d not greater than overlap %d",
			ErrInvalidConfig, c.ChunkTokens, c.OverlapTokens())
	}
	return nil
}
