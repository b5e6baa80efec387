package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/core/ports/driven"
	"github.com/splap/bookqa/internal/core/ports/driving"
	"github.com/splap/bookqa/internal/logger"
)

// Ensure Executor implements the interface.
var _ driving.QuestionService = (*Executor)(nil)

// executorState names the phases of one question's execution.
type executorState string

const (
	stateRouting         executorState = "ROUTING"
	stateAnsweringDirect executorState = "ANSWERING_DIRECT"
	stateScoping         executorState = "SCOPING"
	stateRetrieving      executorState = "RETRIEVING"
	stateExpandingScope  executorState = "EXPANDING_SCOPE"
	stateSummarizing     executorState = "SUMMARIZING"
	stateAnswering       executorState = "ANSWERING_GROUNDED"
	stateBudgetExhausted executorState = "BUDGET_EXHAUSTED"
	stateDone            executorState = "DONE"
)

// evidenceLimit bounds the excerpts fed to the answer prompt.
const evidenceLimit = 8

// retrievalLimit is the per-search hit count.
const retrievalLimit = 10

// summaryChapterLimit bounds the chapter summaries fetched for a
// summary question.
const summaryChapterLimit = 3

// Executor answers questions through a bounded tool-call loop. Each
// question gets a fresh budget; every tool call, including the routing
// call, spends from it. Exhaustion forces a partial answer from
// whatever evidence has been gathered.
type Executor struct {
	registry *BookRegistry
	router   *Router
	tools    driving.ToolSurface
	llm      driven.LLMService
	prompts  driven.PromptStore
	session  *SessionCache
	budget   int
}

// NewExecutor creates an executor. The LLM may be nil; answers then
// degrade to stitched evidence excerpts. A budget <= 0 selects the
// default.
func NewExecutor(
	registry *BookRegistry,
	router *Router,
	tools driving.ToolSurface,
	llm driven.LLMService,
	prompts driven.PromptStore,
	session *SessionCache,
	budget int,
) *Executor {
	if budget <= 0 {
		budget = domain.DefaultToolBudget
	}
	return &Executor{
		registry: registry,
		router:   router,
		tools:    tools,
		llm:      llm,
		prompts:  prompts,
		session:  session,
		budget:   budget,
	}
}

// run tracks one question's budget and tool-call log.
type run struct {
	remaining int
	calls     []domain.ToolCallRecord
}

// spend consumes one budget unit and logs the call. Returns
// ErrBudgetExhausted when nothing is left.
func (r *run) spend(tool, args, result string) error {
	if r.remaining <= 0 {
		return domain.ErrBudgetExhausted
	}
	r.remaining--
	r.calls = append(r.calls, domain.ToolCallRecord{
		Tool:          tool,
		Arguments:     args,
		ResultSummary: result,
	})
	return nil
}

// Ask routes, retrieves and answers one question.
func (e *Executor) Ask(ctx context.Context, bookID, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question: %w", domain.ErrInvalidInput)
	}

	idx, err := e.registry.Get(bookID)
	if err != nil {
		return nil, err
	}

	normalized := domain.NormalizeQuestion(question)
	if cached, ok := e.session.GetAnswer(bookID, normalized); ok {
		logger.Debug("Session cache hit for %q", normalized)
		return cached, nil
	}

	logger.Section("Question Execution")
	logger.Info("Book %s: %q", bookID, question)

	r := &run{remaining: e.budget}
	answer, err := e.execute(ctx, idx, r, question, normalized)
	if err != nil {
		return nil, err
	}
	answer.ToolCalls = r.calls

	// Cancellation must not leave partial results in the cache.
	if ctx.Err() == nil {
		e.session.PutAnswer(bookID, normalized, answer)
	}
	return answer, nil
}

// execute drives the state machine to a terminal answer.
func (e *Executor) execute(
	ctx context.Context, idx *BookIndex, r *run, question, normalized string,
) (*domain.Answer, error) {
	state := stateRouting
	prev := executorState("")
	var routing domain.RoutingResult
	var scope domain.Scope
	var evidence []domain.SearchHit
	var summaries []*domain.ChapterSummary
	degraded := false
	expanded := false

	for state != stateDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if prev != "" {
			logger.Step(string(prev), string(state))
		}
		prev = state

		switch state {
		case stateRouting:
			cached, ok := e.session.GetRouting(idx.Book.ID, normalized)
			if ok {
				routing = cached
				logger.Debug("Routing from session cache: %s", routing.Route)
			} else {
				if err := r.spend("route", normalized, ""); err != nil {
					state = stateBudgetExhausted
					continue
				}
				routing = e.router.Route(ctx, idx, question)
				if ctx.Err() == nil {
					e.session.PutRouting(idx.Book.ID, normalized, routing)
				}
			}

			switch routing.Route {
			case domain.RouteNotBook:
				state = stateAnsweringDirect
			case domain.RouteBook:
				state = stateScoping
			default:
				// AMBIGUOUS spends exactly one concept-map lookup to
				// reclassify.
				if err := r.spend("concept_map_lookup", normalized, ""); err != nil {
					state = stateBudgetExhausted
					continue
				}
				matches, err := e.tools.ConceptMapLookup(ctx, idx.Book.ID, question)
				if err != nil || matches.Empty() {
					routing.Route = domain.RouteNotBook
					state = stateAnsweringDirect
				} else {
					routing.Route = domain.RouteBook
					routing.ChapterIDs = mergeChapterIDs(routing.ChapterIDs, matches.ChapterIDs())
					state = stateScoping
				}
			}

		case stateAnsweringDirect:
			return e.answerDirect(ctx, idx, question)

		case stateScoping:
			scope = domain.NewScope(routing.ChapterIDs)
			state = stateRetrieving

		case stateRetrieving:
			hits, retrDegraded, err := e.retrieve(ctx, idx, r, routing.Queries, scope, question)
			if errors.Is(err, domain.ErrBudgetExhausted) {
				evidence = mergeHits(evidence, hits)
				state = stateBudgetExhausted
				continue
			}
			if err != nil {
				return nil, err
			}
			degraded = degraded || retrDegraded
			evidence = mergeHits(evidence, hits)

			if len(evidence) == 0 && !expanded {
				state = stateExpandingScope
				continue
			}
			if wantsSummary(question) {
				state = stateSummarizing
				continue
			}
			state = stateAnswering

		case stateExpandingScope:
			// One widening only: drop the chapter scope and retry.
			expanded = true
			scope = nil
			logger.Debug("No evidence in scope, widening to whole book")
			state = stateRetrieving

		case stateSummarizing:
			// Summaries only for chapters the evidence implicates, each
			// fetch spending one budget unit.
			exhausted := false
			for _, chapterID := range implicatedChapters(evidence, summaryChapterLimit) {
				if err := r.spend("get_chapter_summary", chapterID, ""); err != nil {
					exhausted = true
					break
				}
				summary, err := e.tools.GetChapterSummary(ctx, idx.Book.ID, chapterID)
				if err != nil {
					logger.Warn("Chapter summary unavailable for %s: %v", chapterID, err)
					continue
				}
				summaries = append(summaries, summary)
			}
			if exhausted {
				state = stateBudgetExhausted
				continue
			}
			state = stateAnswering

		case stateAnswering:
			if len(evidence) == 0 {
				return e.answerNoSupport(idx, routing, scope, degraded), nil
			}
			return e.answerGrounded(ctx, idx, question, evidence, summaries, degraded, false)

		case stateBudgetExhausted:
			logger.Warn("Tool budget exhausted with %d evidence chunks", len(evidence))
			if len(evidence) == 0 {
				answer := e.answerNoSupport(idx, routing, scope, degraded)
				answer.Partial = true
				return answer, nil
			}
			return e.answerGrounded(ctx, idx, question, evidence, summaries, degraded, true)
		}
	}
	return nil, fmt.Errorf("executor reached DONE without an answer")
}

// retrieve runs the routed queries against the chosen index order:
// lexical-first for quotable questions, semantic-first for conceptual
// ones. Semantic unavailability falls back to lexical and degrades.
func (e *Executor) retrieve(
	ctx context.Context, idx *BookIndex, r *run, queries []string, scope domain.Scope, question string,
) ([]domain.SearchHit, bool, error) {
	if len(queries) == 0 {
		queries = []string{question}
	}
	if len(queries) > 2 {
		queries = queries[:2]
	}

	lexicalFirst := quotable(question)
	degraded := false
	var hits []domain.SearchHit

	for _, query := range queries {
		order := []string{"semantic", "lexical"}
		if lexicalFirst {
			order = []string{"lexical", "semantic"}
		}

		for _, kind := range order {
			var (
				found []domain.SearchHit
				err   error
			)
			switch kind {
			case "lexical":
				if err := r.spend("lexical_search", query, ""); err != nil {
					return hits, degraded, err
				}
				found, err = e.tools.LexicalSearch(ctx, idx.Book.ID, query, scope.ChapterIDs(), retrievalLimit)
			case "semantic":
				if !idx.SemanticAvailable() {
					degraded = true
					continue
				}
				if err := r.spend("semantic_search", query, ""); err != nil {
					return hits, degraded, err
				}
				found, err = e.tools.SemanticSearch(ctx, idx.Book.ID, query, scope.ChapterIDs(), retrievalLimit)
			}
			if err != nil {
				logger.Warn("%s search failed: %v", kind, err)
				continue
			}
			hits = mergeHits(hits, found)
			// The primary index finding evidence is enough; the
			// secondary only runs when the primary came back empty.
			if len(found) > 0 {
				break
			}
		}
	}
	return hits, degraded, nil
}

// answerDirect handles NOT_BOOK questions without any book tools.
func (e *Executor) answerDirect(ctx context.Context, idx *BookIndex, question string) (*domain.Answer, error) {
	if e.llm == nil {
		return &domain.Answer{
			Text: fmt.Sprintf("This question does not appear to be about %q, and no language model is configured to answer it generally.", idx.Book.Title),
		}, nil
	}
	response, err := e.llm.Chat(ctx, []driven.ChatMessage{
		{Role: "system", Content: "Answer the user's question directly and concisely."},
		{Role: "user", Content: question},
	}, driven.ChatOptions{MaxTokens: 1024, Temperature: 0.3})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrLLMUnavailable, err)
	}
	return &domain.Answer{Text: response}, nil
}

// answerGrounded composes the final answer from evidence excerpts,
// with chapter summaries as extra context when a summary question
// fetched them.
func (e *Executor) answerGrounded(
	ctx context.Context, idx *BookIndex, question string,
	evidence []domain.SearchHit, summaries []*domain.ChapterSummary, degraded, partial bool,
) (*domain.Answer, error) {
	sort.SliceStable(evidence, func(i, j int) bool {
		if evidence[i].Score != evidence[j].Score {
			return evidence[i].Score > evidence[j].Score
		}
		return evidence[i].ChunkID < evidence[j].ChunkID
	})
	if len(evidence) > evidenceLimit {
		evidence = evidence[:evidenceLimit]
	}

	var contextBlock strings.Builder
	for _, s := range summaries {
		heading := s.Heading
		if heading == "" {
			heading = s.ChapterID
		}
		fmt.Fprintf(&contextBlock, "Summary of %s: %s\n\n", heading, strings.Join(s.KeyPoints, " "))
	}

	citations := make([]domain.Citation, 0, len(evidence))
	var numbered strings.Builder
	for i, hit := range evidence {
		excerpt := hit.Excerpt
		if chunk, ok := idx.Chunk(hit.ChunkID); ok {
			excerpt = chunk.Text
		}
		fmt.Fprintf(&numbered, "[%d] (%s) %s\n\n", i+1, hit.ChunkID, excerpt)
		citations = append(citations, domain.Citation{
			ChunkID:   hit.ChunkID,
			ChapterID: hit.ChapterID,
			Excerpt:   hit.Excerpt,
		})
	}

	text := ""
	if e.llm != nil {
		template, err := e.prompts.Load(driven.PromptAnswer)
		if err != nil {
			return nil, fmt.Errorf("load answer prompt: %w", err)
		}
		prompt := fmt.Sprintf(template, question, contextBlock.String()+numbered.String())
		response, err := e.llm.Generate(ctx, prompt, driven.GenerateOptions{
			MaxTokens:   1024,
			Temperature: 0.2,
		})
		if err != nil {
			logger.Warn("Answer generation failed, stitching excerpts: %v", err)
		} else {
			text = response
		}
	}
	if text == "" {
		// No model: present the summaries and evidence themselves.
		var sb strings.Builder
		if contextBlock.Len() > 0 {
			sb.WriteString(contextBlock.String())
		}
		sb.WriteString("Relevant passages:\n\n")
		for i, c := range citations {
			fmt.Fprintf(&sb, "[%d] %s\n", i+1, c.Excerpt)
		}
		text = sb.String()
	}

	return &domain.Answer{
		Text:      text,
		Citations: citations,
		Grounded:  true,
		Partial:   partial,
		Degraded:  degraded,
	}, nil
}

// implicatedChapters ranks the chapters evidence points at by hit
// count, strongest first, keeping at most max.
func implicatedChapters(evidence []domain.SearchHit, max int) []string {
	counts := make(map[string]int)
	var order []string
	for _, h := range evidence {
		if h.ChapterID == "" {
			continue
		}
		if counts[h.ChapterID] == 0 {
			order = append(order, h.ChapterID)
		}
		counts[h.ChapterID]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > max {
		order = order[:max]
	}
	return order
}

// answerNoSupport states explicitly what was searched and found
// nothing.
func (e *Executor) answerNoSupport(
	idx *BookIndex, routing domain.RoutingResult, scope domain.Scope, degraded bool,
) *domain.Answer {
	scopeDesc := "the whole book"
	if ids := scope.ChapterIDs(); len(ids) > 0 {
		scopeDesc = fmt.Sprintf("%d chapters", len(ids))
	}
	queries := strings.Join(routing.Queries, "; ")
	if queries == "" {
		queries = "the question text"
	}
	return &domain.Answer{
		Text: fmt.Sprintf("No supporting passages were found in %q. Searched %s for: %s.",
			idx.Book.Title, scopeDesc, queries),
		NoSupport: true,
		Degraded:  degraded,
	}
}

// quotable reports whether a question targets exact wording, which
// favours lexical search first.
func quotable(question string) bool {
	if strings.ContainsAny(question, "\"“”‘’'") {
		return true
	}
	lower := strings.ToLower(question)
	for _, marker := range []string{"quote", "exact", "word for word", "verbatim", "passage", "line ", "says", "said"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// wantsSummary reports whether a question asks for a book-level
// overview rather than a specific fact.
func wantsSummary(question string) bool {
	lower := strings.ToLower(question)
	for _, marker := range []string{"summarize", "summarise", "summary", "what is the book about", "what happens in the book", "overview"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// mergeHits appends new hits, dropping chunk IDs already present.
func mergeHits(existing, incoming []domain.SearchHit) []domain.SearchHit {
	seen := make(map[string]bool, len(existing))
	for _, h := range existing {
		seen[h.ChunkID] = true
	}
	for _, h := range incoming {
		if !seen[h.ChunkID] {
			seen[h.ChunkID] = true
			existing = append(existing, h)
		}
	}
	return existing
}

// mergeChapterIDs unions two chapter ID lists, preserving first-seen
// order.
func mergeChapterIDs(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, id := range append(append([]string{}, a...), b...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
