package domain

// Scope restricts a search to a subset of chapters.
// A nil Scope searches the whole book.
type Scope map[string]bool

// NewScope builds a scope from chapter IDs. Returns nil for an empty
// list, which means whole-book search.
func NewScope(chapterIDs []string) Scope {
	if len(chapterIDs) == 0 {
		return nil
	}
	s := make(Scope, len(chapterIDs))
	for _, id := range chapterIDs {
		s[id] = true
	}
	return s
}

// Contains reports whether the chapter is in scope. A nil scope
// contains every chapter.
func (s Scope) Contains(chapterID string) bool {
	if s == nil {
		return true
	}
	return s[chapterID]
}

// ChapterIDs returns the scoped chapter IDs in unspecified order,
// or nil for a whole-book scope.
func (s Scope) ChapterIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// SearchHit is a single ranked retrieval result.
type SearchHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// ChapterID is the chapter containing the chunk.
	ChapterID string

	// Score is the relevance score. BM25 for lexical hits, cosine
	// similarity for semantic hits.
	Score float64

	// Excerpt is a short snippet from the chunk for display.
	Excerpt string
}
