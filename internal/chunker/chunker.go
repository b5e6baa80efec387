// Package chunker splits chapter text into overlapping, addressable
// chunks. Chunk sizes are measured in tokens; boundaries prefer sentence
// breaks within a tolerance window before falling back to a hard cut.
package chunker

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/splap/bookqa/internal/core/domain"
)

// encodingName is the tiktoken encoding used for token counting.
const encodingName = "cl100k_base"

// boundaryTolerance is how far back from the target cut (as a fraction
// of chunk size) a sentence break may be and still be preferred over a
// hard token cut.
const boundaryTolerance = 0.15

// span is a token's byte range within the chapter text.
type span struct {
	start int
	end   int
}

// Chunker splits chapter text into chunks.
type Chunker struct {
	cfg domain.ChunkingConfig
	enc *tiktoken.Tiktoken
}

// New creates a chunker with the given configuration.
// Returns domain.ErrInvalidConfig before any work when the
// configuration is invalid. The tiktoken encoding is loaded once; when
// unavailable the chunker falls back to whitespace word tokens.
func New(cfg domain.ChunkingConfig) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Offline environments cannot always load the encoding. The word
	// fallback keeps chunking deterministic either way.
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		enc = nil
	}

	return &Chunker{cfg: cfg, enc: enc}, nil
}

// Split chunks one chapter's plain text into ordered chunks.
// Guarantees: chunks cover the full text with no gaps, start offsets are
// non-decreasing, consecutive chunks overlap by the configured token
// fraction, and the final chunk ends exactly at the chapter's end.
func (c *Chunker) Split(chapterText, bookID, chapterID string) ([]domain.Chunk, error) {
	if strings.TrimSpace(chapterText) == "" {
		return nil, nil
	}

	spans := c.tokenSpans(chapterText)
	if len(spans) == 0 {
		return nil, nil
	}
	breaks := sentenceBreaks(chapterText, spans)

	chunkTokens := c.cfg.ChunkTokens
	overlap := c.cfg.OverlapTokens()
	tolerance := int(float64(chunkTokens) * boundaryTolerance)

	var chunks []domain.Chunk
	start := 0 // token index

	for start < len(spans) {
		end := start + chunkTokens
		if end >= len(spans) {
			end = len(spans)
		} else {
			// Prefer a sentence break within the tolerance window.
			for back := 0; back <= tolerance; back++ {
				if breaks[end-back-1] {
					end -= back
					break
				}
			}
			// Snapping must still advance past the overlap region.
			if end-overlap <= start {
				end = start + chunkTokens
			}
		}

		endOffset := spans[end-1].end
		if end < len(spans) && overlap == 0 {
			// Without overlap the whitespace between tokens would fall
			// into a gap; extend to the next token's start.
			endOffset = spans[end].start
		}

		chunks = append(chunks, domain.Chunk{
			ID:          domain.ChunkID(chapterID, len(chunks)),
			BookID:      bookID,
			ChapterID:   chapterID,
			Ordinal:     len(chunks),
			StartOffset: spans[start].start,
			EndOffset:   endOffset,
			Text:        chapterText[spans[start].start:endOffset],
			TokenCount:  end - start,
		})

		if end == len(spans) {
			break
		}
		start = end - overlap
	}

	// The first chunk must begin at offset zero and the last must end at
	// the chapter's end; leading and trailing whitespace outside token
	// spans still belongs to the chapter's offset range.
	chunks[0].StartOffset = 0
	chunks[0].Text = chapterText[0:chunks[0].EndOffset]
	last := len(chunks) - 1
	chunks[last].EndOffset = len(chapterText)
	chunks[last].Text = chapterText[chunks[last].StartOffset:]

	return chunks, nil
}

// ChapterTokenCount returns the token count for a whole chapter.
// Used by the summarizer to pick direct vs map-reduce summarisation.
func (c *Chunker) ChapterTokenCount(chapterText string) int {
	return len(c.tokenSpans(chapterText))
}

// tokenSpans tokenises text into byte ranges. Uses tiktoken when the
// encoding loaded and the decoded lengths reconstruct the input; falls
// back to whitespace-delimited words otherwise.
func (c *Chunker) tokenSpans(text string) []span {
	if c.enc != nil {
		if spans, ok := c.tiktokenSpans(text); ok {
			return spans
		}
	}
	return wordSpans(text)
}

func (c *Chunker) tiktokenSpans(text string) ([]span, bool) {
	ids := c.enc.Encode(text, nil, nil)
	spans := make([]span, 0, len(ids))
	offset := 0
	for _, id := range ids {
		piece := c.enc.Decode([]int{id})
		next := offset + len(piece)
		if next > len(text) {
			return nil, false
		}
		spans = append(spans, span{start: offset, end: next})
		offset = next
	}
	// Multi-byte runes can split across tokens and decode to
	// replacement characters; when lengths no longer reconstruct the
	// text the offsets are unusable.
	if offset != len(text) {
		return nil, false
	}
	return spans, true
}

// wordSpans tokenises on whitespace, keeping byte offsets.
func wordSpans(text string) []span {
	var spans []span
	inWord := false
	start := 0
	for i, r := range text {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if inWord {
				spans = append(spans, span{start: start, end: i})
				inWord = false
			}
			continue
		}
		if !inWord {
			start = i
			inWord = true
		}
	}
	if inWord {
		spans = append(spans, span{start: start, end: len(text)})
	}
	return spans
}

// sentenceBreaks marks token indexes whose text ends a sentence.
func sentenceBreaks(text string, spans []span) []bool {
	breaks := make([]bool, len(spans))
	for i, sp := range spans {
		tok := strings.TrimRight(text[sp.start:sp.end], "\"'’”) ")
		if tok == "" {
			continue
		}
		switch tok[len(tok)-1] {
		case '.', '!', '?', '\n':
			breaks[i] = true
		}
	}
	return breaks
}

// Describe reports the effective chunking parameters, for status output.
func (c *Chunker) Describe() string {
	mode := "tiktoken/" + encodingName
	if c.enc == nil {
		mode = "word"
	}
	return fmt.Sprintf("%d tokens, %d overlap (%s)", c.cfg.ChunkTokens, c.cfg.OverlapTokens(), mode)
}
