package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/splap/bookqa/internal/core/domain"
)

// defaultSearchLimit bounds search results when the caller gives none.
const defaultSearchLimit = 10

// AskInput is the input schema for the ask tool.
type AskInput struct {
	BookID   string `json:"book_id" jsonschema:"the book to ask about"`
	Question string `json:"question" jsonschema:"the question to answer"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string           `json:"answer"`
	Citations []CitationOutput `json:"citations,omitempty"`
	Grounded  bool             `json:"grounded"`
	Partial   bool             `json:"partial"`
	Degraded  bool             `json:"degraded"`
	NoSupport bool             `json:"no_support"`
	ToolCalls int              `json:"tool_calls"`
}

// CitationOutput references one supporting chunk.
type CitationOutput struct {
	ChunkID   string `json:"chunk_id"`
	ChapterID string `json:"chapter_id"`
	Excerpt   string `json:"excerpt,omitempty"`
}

// LookupInput is the input schema for the concept_map_lookup tool.
type LookupInput struct {
	BookID string `json:"book_id" jsonschema:"the book whose concept map to query"`
	Query  string `json:"query" jsonschema:"entity, theme or event to look up"`
}

// LookupOutput is the output schema for the concept_map_lookup tool.
type LookupOutput struct {
	Entities []ConceptOutput `json:"entities,omitempty"`
	Themes   []ConceptOutput `json:"themes,omitempty"`
	Events   []ConceptOutput `json:"events,omitempty"`
}

// ConceptOutput represents one concept map item.
type ConceptOutput struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Kind       string   `json:"kind"`
	Aliases    []string `json:"aliases,omitempty"`
	ChapterIDs []string `json:"chapter_ids,omitempty"`
}

// SearchInput is the input schema for the lexical_search and
// semantic_search tools.
type SearchInput struct {
	BookID     string   `json:"book_id" jsonschema:"the book to search"`
	Query      string   `json:"query" jsonschema:"the search query"`
	ChapterIDs []string `json:"chapter_ids,omitempty" jsonschema:"restrict the search to these chapters"`
	Limit      int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search tools.
type SearchOutput struct {
	Hits  []SearchHitOutput `json:"hits"`
	Count int               `json:"count"`
}

// SearchHitOutput represents a single search result.
type SearchHitOutput struct {
	ChunkID   string  `json:"chunk_id"`
	ChapterID string  `json:"chapter_id"`
	Score     float64 `json:"score"`
	Excerpt   string  `json:"excerpt,omitempty"`
}

// ChapterSummaryInput is the input schema for get_chapter_summary.
type ChapterSummaryInput struct {
	BookID    string `json:"book_id" jsonschema:"the book containing the chapter"`
	ChapterID string `json:"chapter_id" jsonschema:"the chapter to summarise"`
}

// ChapterSummaryOutput is the output schema for get_chapter_summary.
type ChapterSummaryOutput struct {
	ChapterID  string   `json:"chapter_id"`
	Heading    string   `json:"heading"`
	KeyPoints  []string `json:"key_points,omitempty"`
	Characters []string `json:"characters,omitempty"`
}

// SynopsisInput is the input schema for get_book_synopsis.
type SynopsisInput struct {
	BookID string `json:"book_id" jsonschema:"the book to summarise"`
}

// SynopsisOutput is the output schema for get_book_synopsis.
type SynopsisOutput struct {
	Overview   string   `json:"overview"`
	Characters []string `json:"characters,omitempty"`
	Themes     []string `json:"themes,omitempty"`
}

// ChunkInput is the input schema for get_chunk.
type ChunkInput struct {
	BookID  string `json:"book_id" jsonschema:"the book containing the chunk"`
	ChunkID string `json:"chunk_id" jsonschema:"the chunk to fetch, as cited in search results"`
}

// ChunkOutput is the output schema for get_chunk.
type ChunkOutput struct {
	ChunkID   string `json:"chunk_id"`
	ChapterID string `json:"chapter_id"`
	Text      string `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	if s.ports.Question != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question about an ingested book with citations",
		}, s.handleAsk)
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "concept_map_lookup",
		Description: "Look up entities, themes and events in a book's concept map",
	}, s.handleConceptMapLookup)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "lexical_search",
		Description: "Keyword (BM25) search over a book's text",
	}, s.handleLexicalSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "semantic_search",
		Description: "Semantic (embedding) search over a book's text",
	}, s.handleSemanticSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_chapter_summary",
		Description: "Get a chapter summary, generating it on first request",
	}, s.handleChapterSummary)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_book_synopsis",
		Description: "Get a whole-book synopsis, generating it on first request",
	}, s.handleSynopsis)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_chunk",
		Description: "Fetch the full text of a chunk by ID",
	}, s.handleChunk)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Question.Ask(ctx, input.BookID, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:    answer.Text,
		Grounded:  answer.Grounded,
		Partial:   answer.Partial,
		Degraded:  answer.Degraded,
		NoSupport: answer.NoSupport,
		ToolCalls: len(answer.ToolCalls),
	}
	for _, c := range answer.Citations {
		output.Citations = append(output.Citations, CitationOutput{
			ChunkID:   c.ChunkID,
			ChapterID: c.ChapterID,
			Excerpt:   c.Excerpt,
		})
	}

	return nil, output, nil
}

// handleConceptMapLookup handles the concept_map_lookup tool invocation.
func (s *Server) handleConceptMapLookup(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LookupInput,
) (*mcp.CallToolResult, LookupOutput, error) {
	matches, err := s.ports.Tools.ConceptMapLookup(ctx, input.BookID, input.Query)
	if err != nil {
		return nil, LookupOutput{}, err
	}

	return nil, LookupOutput{
		Entities: conceptOutputs(matches.Entities),
		Themes:   conceptOutputs(matches.Themes),
		Events:   conceptOutputs(matches.Events),
	}, nil
}

// handleLexicalSearch handles the lexical_search tool invocation.
func (s *Server) handleLexicalSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	hits, err := s.ports.Tools.LexicalSearch(ctx, input.BookID, input.Query, input.ChapterIDs, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, searchOutput(hits), nil
}

// handleSemanticSearch handles the semantic_search tool invocation.
func (s *Server) handleSemanticSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	hits, err := s.ports.Tools.SemanticSearch(ctx, input.BookID, input.Query, input.ChapterIDs, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, searchOutput(hits), nil
}

// handleChapterSummary handles the get_chapter_summary tool invocation.
func (s *Server) handleChapterSummary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChapterSummaryInput,
) (*mcp.CallToolResult, ChapterSummaryOutput, error) {
	summary, err := s.ports.Tools.GetChapterSummary(ctx, input.BookID, input.ChapterID)
	if err != nil {
		return nil, ChapterSummaryOutput{}, err
	}

	return nil, ChapterSummaryOutput{
		ChapterID:  summary.ChapterID,
		Heading:    summary.Heading,
		KeyPoints:  summary.KeyPoints,
		Characters: summary.Characters,
	}, nil
}

// handleSynopsis handles the get_book_synopsis tool invocation.
func (s *Server) handleSynopsis(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SynopsisInput,
) (*mcp.CallToolResult, SynopsisOutput, error) {
	synopsis, err := s.ports.Tools.GetBookSynopsis(ctx, input.BookID)
	if err != nil {
		return nil, SynopsisOutput{}, err
	}

	return nil, SynopsisOutput{
		Overview:   synopsis.Overview,
		Characters: synopsis.Characters,
		Themes:     synopsis.Themes,
	}, nil
}

// handleChunk handles the get_chunk tool invocation.
func (s *Server) handleChunk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChunkInput,
) (*mcp.CallToolResult, ChunkOutput, error) {
	chunk, err := s.ports.Tools.GetChunk(ctx, input.BookID, input.ChunkID)
	if err != nil {
		return nil, ChunkOutput{}, err
	}

	return nil, ChunkOutput{
		ChunkID:   chunk.ID,
		ChapterID: chunk.ChapterID,
		Text:      chunk.Text,
	}, nil
}

// conceptOutputs converts concept items to the wire format.
func conceptOutputs(items []domain.ConceptItem) []ConceptOutput {
	if len(items) == 0 {
		return nil
	}
	outputs := make([]ConceptOutput, len(items))
	for i, item := range items {
		outputs[i] = ConceptOutput{
			ID:         item.ID,
			Label:      item.Label,
			Kind:       string(item.Kind),
			Aliases:    item.Aliases,
			ChapterIDs: item.ChapterIDs,
		}
	}
	return outputs
}

// searchOutput converts hits to the wire format.
func searchOutput(hits []domain.SearchHit) SearchOutput {
	output := SearchOutput{
		Hits:  make([]SearchHitOutput, len(hits)),
		Count: len(hits),
	}
	for i, hit := range hits {
		output.Hits[i] = SearchHitOutput{
			ChunkID:   hit.ChunkID,
			ChapterID: hit.ChapterID,
			Score:     hit.Score,
			Excerpt:   hit.Excerpt,
		}
	}
	return output
}
