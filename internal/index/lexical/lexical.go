// Package lexical provides ranked keyword search over chunks using an
// inverted index with BM25 scoring. The index is built once per book and
// is read-only afterwards, so concurrent readers need no locking.
package lexical

import (
	"math"
	"sort"
	"strings"

	"github.com/splap/bookqa/internal/analysis"
	"github.com/splap/bookqa/internal/core/domain"
)

// BM25 parameters.
const (
	k1 = 1.2
	b  = 0.75
)

// excerptLen is the maximum excerpt length in bytes.
const excerptLen = 200

// posting records one term occurrence in one chunk.
type posting struct {
	chunkID string
	freq    int
}

// chunkEntry holds what the index needs to score and present a chunk.
type chunkEntry struct {
	chapterID string
	text      string
	length    int // tokens after stopword filtering
}

// Index is a BM25 inverted index over one book's chunks.
type Index struct {
	postings map[string][]posting
	chunks   map[string]chunkEntry
	avgLen   float64
}

// New builds the index from the book's chunks. Building is bulk and
// idempotent: identical input produces an identical index.
func New(chunks []domain.Chunk) *Index {
	idx := &Index{
		postings: make(map[string][]posting),
		chunks:   make(map[string]chunkEntry, len(chunks)),
	}

	// Postings are appended in chunk order, so per-term lists are
	// already deterministic.
	ordered := make([]domain.Chunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	totalLen := 0
	for _, ch := range ordered {
		tokens := analysis.TokenizeFiltered(ch.Text)
		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}

		terms := make([]string, 0, len(freqs))
		for term := range freqs {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		for _, term := range terms {
			idx.postings[term] = append(idx.postings[term], posting{chunkID: ch.ID, freq: freqs[term]})
		}

		idx.chunks[ch.ID] = chunkEntry{
			chapterID: ch.ChapterID,
			text:      ch.Text,
			length:    len(tokens),
		}
		totalLen += len(tokens)
	}

	if len(ordered) > 0 {
		idx.avgLen = float64(totalLen) / float64(len(ordered))
	}
	return idx
}

// Size returns the number of indexed chunks.
func (idx *Index) Size() int {
	return len(idx.chunks)
}

// Search runs a BM25 query. Scope restricts candidates to chunks whose
// chapter is in scope; a nil scope searches the whole book. Returns an
// empty list, not an error, when no terms match. Deterministic: score
// ties break by ascending chunk ID.
func (idx *Index) Search(query string, scope domain.Scope, limit int) []domain.SearchHit {
	terms := analysis.TokenizeFiltered(query)
	if len(terms) == 0 || limit <= 0 {
		return []domain.SearchHit{}
	}

	// Deduplicate query terms; repeated terms should not double-score.
	seen := make(map[string]bool, len(terms))
	unique := terms[:0]
	for _, term := range terms {
		if !seen[term] {
			seen[term] = true
			unique = append(unique, term)
		}
	}

	n := float64(len(idx.chunks))
	scores := make(map[string]float64)

	for _, term := range unique {
		plist, ok := idx.postings[term]
		if !ok {
			continue
		}
		df := float64(len(plist))
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))

		for _, p := range plist {
			entry := idx.chunks[p.chunkID]
			if !scope.Contains(entry.chapterID) {
				continue
			}
			tf := float64(p.freq)
			norm := 1 - b + b*float64(entry.length)/idx.avgLen
			scores[p.chunkID] += idf * (tf * (k1 + 1)) / (tf + k1*norm)
		}
	}

	hits := make([]domain.SearchHit, 0, len(scores))
	for chunkID, score := range scores {
		entry := idx.chunks[chunkID]
		hits = append(hits, domain.SearchHit{
			ChunkID:   chunkID,
			ChapterID: entry.chapterID,
			Score:     score,
			Excerpt:   excerptAround(entry.text, unique),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// excerptAround returns a snippet centred on the first query term found
// in the text, falling back to the text's head.
func excerptAround(text string, terms []string) string {
	lower := strings.ToLower(text)
	pos := -1
	for _, term := range terms {
		if i := strings.Index(lower, term); i >= 0 && (pos < 0 || i < pos) {
			pos = i
		}
	}
	if pos < 0 {
		return analysis.Excerpt(text, excerptLen)
	}

	start := pos - excerptLen/2
	if start < 0 {
		start = 0
	}
	// Align to a word boundary so the snippet does not open mid-word.
	if start > 0 {
		if sp := strings.Index(text[start:], " "); sp >= 0 && start+sp < pos {
			start += sp + 1
		}
	}
	return analysis.Excerpt(text[start:], excerptLen)
}
