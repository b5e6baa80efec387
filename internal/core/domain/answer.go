package domain

// Citation ties an answer back to a specific chunk.
type Citation struct {
	// ChunkID is the cited chunk.
	ChunkID string

	// ChapterID is the chapter containing the chunk.
	ChapterID string

	// Excerpt is the quoted evidence.
	Excerpt string
}

// ToolCallRecord is one entry in the per-question tool-call log.
// Used to enforce and report the budget; discarded after the answer
// unless retained for debugging.
type ToolCallRecord struct {
	// Tool is the tool name, e.g. "lexical_search".
	Tool string

	// Arguments is a compact rendering of the call arguments.
	Arguments string

	// ResultSummary is a compact rendering of the result.
	ResultSummary string
}

// Answer is the final response to a question.
type Answer struct {
	// Text is the answer body.
	Text string

	// Citations are evidence references for grounded answers.
	Citations []Citation

	// Grounded is true when the answer was composed from retrieved
	// excerpts rather than general knowledge.
	Grounded bool

	// Partial is true when the budget ran out and the answer was
	// forced from whatever evidence had been gathered.
	Partial bool

	// Degraded is true when semantic search was unavailable and the
	// answer used lexical retrieval only.
	Degraded bool

	// NoSupport is true when retrieval found no evidence for the
	// question; Text then states explicitly what was searched.
	NoSupport bool

	// ToolCalls is the ordered tool-call log for this question.
	ToolCalls []ToolCallRecord
}

// ToolBudget bounds tool calls per question, including the routing call.
const DefaultToolBudget = 8
