package domain

import "strings"

// Route classifies a question relative to the book.
type Route string

const (
	// RouteNotBook means the question is unrelated to the book and
	// should be answered without any book tools.
	RouteNotBook Route = "NOT_BOOK"

	// RouteBook means the question is about the book.
	RouteBook Route = "BOOK"

	// RouteAmbiguous means the router could not decide; the executor
	// spends exactly one concept-map lookup to reclassify.
	RouteAmbiguous Route = "AMBIGUOUS"
)

// Valid reports whether the route is one of the three enumerated values.
func (r Route) Valid() bool {
	return r == RouteNotBook || r == RouteBook || r == RouteAmbiguous
}

// RoutingResult is the router's classification of a question.
// Ephemeral: recomputed per question, cached only within a session.
type RoutingResult struct {
	// Route is the classification.
	Route Route

	// Confidence is in [0, 1].
	Confidence float64

	// ChapterIDs are suggested initial scope chapters (BOOK/AMBIGUOUS).
	ChapterIDs []string

	// Queries are suggested initial search queries (BOOK/AMBIGUOUS).
	Queries []string
}

// NormalizeQuestion canonicalises a question for session cache keys:
// lower case, collapsed whitespace, trailing punctuation stripped.
func NormalizeQuestion(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.TrimRight(q, "?!. ")
	return strings.Join(strings.Fields(q), " ")
}
