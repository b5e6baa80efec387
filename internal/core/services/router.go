package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/splap/bookqa/internal/conceptmap"
	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/core/ports/driven"
	"github.com/splap/bookqa/internal/logger"
)

// Router classifies questions before retrieval. LLM-backed with a
// strict JSON response contract; falls back to concept-map keyword
// overlap when the LLM is unavailable. One routing call counts against
// the question's tool budget.
type Router struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewRouter creates a router. The LLM may be nil.
func NewRouter(llm driven.LLMService, prompts driven.PromptStore) *Router {
	return &Router{llm: llm, prompts: prompts}
}

// notBookConfidenceFloor is the minimum confidence at which a NOT_BOOK
// classification is trusted. Below it the question routes to retrieval
// anyway.
const notBookConfidenceFloor = 0.6

// routeResponse is the JSON contract the routing prompt demands.
type routeResponse struct {
	Route      string   `json:"route"`
	Confidence float64  `json:"confidence"`
	ChapterIDs []string `json:"chapter_ids"`
	Queries    []string `json:"queries"`
}

// Route classifies one question against one book. Never returns an
// error for classification trouble; it degrades to the deterministic
// fallback instead.
func (r *Router) Route(ctx context.Context, idx *BookIndex, question string) domain.RoutingResult {
	logger.Section("Routing")
	logger.Debug("Question: %q", question)

	if r.llm != nil {
		if result, err := r.routeLLM(ctx, idx, question); err == nil {
			logger.Info("Route: %s (confidence %.2f)", result.Route, result.Confidence)
			return result
		} else {
			logger.Warn("LLM routing failed, using fallback: %v", err)
		}
	}

	result := r.routeFallback(idx, question)
	logger.Info("Route (fallback): %s (confidence %.2f)", result.Route, result.Confidence)
	return result
}

// routeLLM asks the model for a JSON routing decision and clamps the
// response to the contract.
func (r *Router) routeLLM(ctx context.Context, idx *BookIndex, question string) (domain.RoutingResult, error) {
	template, err := r.prompts.Load(driven.PromptRoute)
	if err != nil {
		return domain.RoutingResult{}, fmt.Errorf("load route prompt: %w", err)
	}
	prompt := fmt.Sprintf(template, idx.Book.Title, question)

	raw, err := r.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   512,
		Temperature: 0,
	})
	if err != nil {
		return domain.RoutingResult{}, fmt.Errorf("%w: %s", domain.ErrLLMUnavailable, err)
	}

	var resp routeResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil {
		return domain.RoutingResult{}, fmt.Errorf("parse routing response: %w", err)
	}

	route := domain.Route(strings.ToUpper(strings.TrimSpace(resp.Route)))
	if !route.Valid() {
		return domain.RoutingResult{}, fmt.Errorf("parse routing response: unknown route %q", resp.Route)
	}

	confidence := resp.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	if route == domain.RouteNotBook && confidence < notBookConfidenceFloor {
		logger.Debug("NOT_BOOK at confidence %.2f, demoting to BOOK", confidence)
		route = domain.RouteBook
	}

	// Only chapters the book actually has survive clamping.
	known := make(map[string]bool, len(idx.Chapters))
	for _, ch := range idx.Chapters {
		known[ch.ID] = true
	}
	var chapterIDs []string
	for _, id := range resp.ChapterIDs {
		if known[id] {
			chapterIDs = append(chapterIDs, id)
		}
	}

	queries := resp.Queries
	if len(queries) == 0 {
		queries = []string{question}
	}

	return domain.RoutingResult{
		Route:      route,
		Confidence: confidence,
		ChapterIDs: chapterIDs,
		Queries:    queries,
	}, nil
}

// routeFallback routes from concept-map label overlap alone. Overlap
// means the question mentions something the book is about.
func (r *Router) routeFallback(idx *BookIndex, question string) domain.RoutingResult {
	queries := []string{question}
	if idx.ConceptMap == nil {
		return domain.RoutingResult{Route: domain.RouteAmbiguous, Confidence: 0.3, Queries: queries}
	}
	matches := conceptmap.Lookup(idx.ConceptMap, question)
	if matches.Empty() {
		return domain.RoutingResult{Route: domain.RouteAmbiguous, Confidence: 0.3, Queries: queries}
	}
	return domain.RoutingResult{
		Route:      domain.RouteBook,
		Confidence: 0.6,
		ChapterIDs: matches.ChapterIDs(),
		Queries:    queries,
	}
}

// extractJSON strips markdown fences and leading prose from a model
// response, keeping the outermost JSON object.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return raw
	}
	return raw[start : end+1]
}
