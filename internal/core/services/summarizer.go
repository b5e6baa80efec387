package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/core/ports/driven"
	"github.com/splap/bookqa/internal/core/ports/driving"
	"github.com/splap/bookqa/internal/logger"
)

// Ensure SummaryService implements the interface.
var _ driving.SummaryService = (*SummaryService)(nil)

const (
	// directSummaryTokens is the chapter size below which one LLM call
	// summarises the whole chapter. Larger chapters go through
	// map-reduce over chunk groups.
	directSummaryTokens = 6000

	// groupTokens is the map-reduce group size.
	groupTokens = 4000

	// summaryCacheSize bounds the in-memory summary caches.
	summaryCacheSize = 128

	// synopsisConceptLimit is how many top entities and themes feed
	// the synopsis prompt.
	synopsisConceptLimit = 10
)

// SummaryService generates chapter summaries and book synopses on
// first request. Results go through a write-through cache: LRU in
// front of the persistent store, invalidated only by re-ingest.
type SummaryService struct {
	registry *BookRegistry
	llm      driven.LLMService
	prompts  driven.PromptStore
	store    driven.SummaryStore

	chapterCache  *lru.Cache[string, *domain.ChapterSummary]
	synopsisCache *lru.Cache[string, *domain.BookSynopsis]
}

// NewSummaryService creates a summary service. The LLM is required for
// generation; lookups of already persisted summaries work without it.
func NewSummaryService(
	registry *BookRegistry,
	llm driven.LLMService,
	prompts driven.PromptStore,
	store driven.SummaryStore,
) (*SummaryService, error) {
	chapterCache, err := lru.New[string, *domain.ChapterSummary](summaryCacheSize)
	if err != nil {
		return nil, err
	}
	synopsisCache, err := lru.New[string, *domain.BookSynopsis](summaryCacheSize)
	if err != nil {
		return nil, err
	}
	return &SummaryService{
		registry:      registry,
		llm:           llm,
		prompts:       prompts,
		store:         store,
		chapterCache:  chapterCache,
		synopsisCache: synopsisCache,
	}, nil
}

// Invalidate drops every cached summary for a book. Called on
// re-ingest after the persistent rows are deleted.
func (s *SummaryService) Invalidate(bookID string) {
	for _, key := range s.chapterCache.Keys() {
		if strings.HasPrefix(key, bookID+"\x00") {
			s.chapterCache.Remove(key)
		}
	}
	s.synopsisCache.Remove(bookID)
}

// ChapterSummary returns one chapter's summary, generating and
// persisting it on first request.
func (s *SummaryService) ChapterSummary(ctx context.Context, bookID, chapterID string) (*domain.ChapterSummary, error) {
	key := bookID + "\x00" + chapterID
	if cached, ok := s.chapterCache.Get(key); ok {
		return cached, nil
	}

	stored, err := s.store.GetChapterSummary(ctx, bookID, chapterID)
	if err == nil {
		s.chapterCache.Add(key, stored)
		return stored, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load chapter summary: %w", err)
	}

	idx, err := s.registry.Get(bookID)
	if err != nil {
		return nil, err
	}
	chapter, ok := findChapter(idx.Chapters, chapterID)
	if !ok {
		return nil, fmt.Errorf("chapter %s: %w", chapterID, domain.ErrNotFound)
	}

	summary, err := s.generateChapterSummary(ctx, idx, chapter)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveChapterSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("persist chapter summary: %w", err)
	}
	s.chapterCache.Add(key, summary)
	return summary, nil
}

// Synopsis returns the whole-book synopsis, generating missing chapter
// summaries first.
func (s *SummaryService) Synopsis(ctx context.Context, bookID string) (*domain.BookSynopsis, error) {
	if cached, ok := s.synopsisCache.Get(bookID); ok {
		return cached, nil
	}

	stored, err := s.store.GetSynopsis(ctx, bookID)
	if err == nil {
		s.synopsisCache.Add(bookID, stored)
		return stored, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load synopsis: %w", err)
	}

	idx, err := s.registry.Get(bookID)
	if err != nil {
		return nil, err
	}

	logger.Section("Synopsis Generation")
	logger.Info("Book %s: %d chapters", bookID, len(idx.Chapters))

	var parts []string
	for _, ch := range idx.Chapters {
		summary, err := s.ChapterSummary(ctx, bookID, ch.ID)
		if err != nil {
			return nil, fmt.Errorf("chapter %s summary: %w", ch.ID, err)
		}
		parts = append(parts, formatChapterSummary(summary))
	}

	synopsis, err := s.generateSynopsis(ctx, idx, parts)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveSynopsis(ctx, synopsis); err != nil {
		return nil, fmt.Errorf("persist synopsis: %w", err)
	}
	s.synopsisCache.Add(bookID, synopsis)
	return synopsis, nil
}

// generateChapterSummary runs either a direct summary or map-reduce
// over chunk groups, depending on chapter size.
func (s *SummaryService) generateChapterSummary(
	ctx context.Context, idx *BookIndex, chapter domain.Chapter,
) (*domain.ChapterSummary, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	chunks := idx.ChapterChunks(chapter.ID)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("chapter %s has no chunks: %w", chapter.ID, domain.ErrNotFound)
	}

	total := 0
	for _, c := range chunks {
		total += c.TokenCount
	}

	logger.Section("Chapter Summary")
	logger.Info("Chapter %s: %d chunks, %d tokens", chapter.ID, len(chunks), total)

	var body string
	if total <= directSummaryTokens {
		var sb strings.Builder
		for _, c := range chunks {
			sb.WriteString(c.Text)
			sb.WriteString("\n")
		}
		body = sb.String()
	} else {
		logger.Debug("Chapter exceeds %d tokens, using map-reduce", directSummaryTokens)
		partials, err := s.mapReduce(ctx, chapter.Title, chunks)
		if err != nil {
			return nil, err
		}
		body = strings.Join(partials, "\n\n")
	}

	response, err := s.summarise(ctx, chapter.Title, body)
	if err != nil {
		return nil, err
	}

	keyPoints, characters := parseSummaryResponse(response)
	return &domain.ChapterSummary{
		BookID:      chapter.BookID,
		ChapterID:   chapter.ID,
		Heading:     chapter.Title,
		KeyPoints:   keyPoints,
		Characters:  characters,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// mapReduce summarises fixed-size chunk groups independently. The
// caller reduces the partial summaries with one final call.
func (s *SummaryService) mapReduce(ctx context.Context, title string, chunks []domain.Chunk) ([]string, error) {
	var groups [][]domain.Chunk
	var current []domain.Chunk
	size := 0
	for _, c := range chunks {
		if size+c.TokenCount > groupTokens && len(current) > 0 {
			groups = append(groups, current)
			current = nil
			size = 0
		}
		current = append(current, c)
		size += c.TokenCount
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	logger.Debug("Map-reduce: %d groups", len(groups))

	partials := make([]string, 0, len(groups))
	for i, group := range groups {
		var sb strings.Builder
		for _, c := range group {
			sb.WriteString(c.Text)
			sb.WriteString("\n")
		}
		partial, err := s.summarise(ctx, fmt.Sprintf("%s (part %d)", title, i+1), sb.String())
		if err != nil {
			return nil, fmt.Errorf("summarise group %d: %w", i+1, err)
		}
		partials = append(partials, partial)
	}
	return partials, nil
}

// summarise runs the chapter summary prompt over one body of text.
func (s *SummaryService) summarise(ctx context.Context, title, text string) (string, error) {
	template, err := s.prompts.Load(driven.PromptChapterSummary)
	if err != nil {
		return "", fmt.Errorf("load summary prompt: %w", err)
	}
	prompt := fmt.Sprintf(template, title, text)
	response, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrLLMUnavailable, err)
	}
	return response, nil
}

// generateSynopsis reduces chapter summaries and top concepts into the
// whole-book synopsis.
func (s *SummaryService) generateSynopsis(
	ctx context.Context, idx *BookIndex, chapterParts []string,
) (*domain.BookSynopsis, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	template, err := s.prompts.Load(driven.PromptSynopsis)
	if err != nil {
		return nil, fmt.Errorf("load synopsis prompt: %w", err)
	}

	concepts := topConcepts(idx.ConceptMap, synopsisConceptLimit)
	prompt := fmt.Sprintf(template,
		idx.Book.Title,
		strings.Join(chapterParts, "\n\n"),
		strings.Join(concepts, "\n"))

	response, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   2048,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrLLMUnavailable, err)
	}

	overview, characters, themes := parseSynopsisResponse(response)
	return &domain.BookSynopsis{
		BookID:      idx.Book.ID,
		Overview:    overview,
		Characters:  characters,
		Themes:      themes,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// topConcepts renders the strongest concept-map entities and themes as
// prompt lines.
func topConcepts(cm *domain.ConceptMap, limit int) []string {
	if cm == nil {
		return nil
	}
	var lines []string
	for i, e := range cm.Entities {
		if i == limit {
			break
		}
		lines = append(lines, "Entity: "+e.Label)
	}
	for i, t := range cm.Themes {
		if i == limit {
			break
		}
		lines = append(lines, "Theme: "+t.Label)
	}
	return lines
}

// formatChapterSummary renders a stored summary for the synopsis
// prompt.
func formatChapterSummary(s *domain.ChapterSummary) string {
	var sb strings.Builder
	sb.WriteString(s.Heading)
	sb.WriteString("\n")
	for _, p := range s.KeyPoints {
		sb.WriteString("- ")
		sb.WriteString(p)
		sb.WriteString("\n")
	}
	return sb.String()
}

// parseSummaryResponse splits an LLM summary into key points and
// characters. The prompt asks for two headed bullet lists; anything
// unparseable lands in key points so no output is lost.
func parseSummaryResponse(response string) (keyPoints, characters []string) {
	section := "key"
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "KEY POINTS"):
			section = "key"
			continue
		case strings.HasPrefix(upper, "CHARACTERS"):
			section = "characters"
			continue
		}
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		if section == "characters" {
			characters = append(characters, line)
		} else {
			keyPoints = append(keyPoints, line)
		}
	}
	return keyPoints, characters
}

// parseSynopsisResponse splits an LLM synopsis into overview text,
// characters and themes.
func parseSynopsisResponse(response string) (overview string, characters, themes []string) {
	section := "overview"
	var overviewLines []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "OVERVIEW"):
			section = "overview"
			continue
		case strings.HasPrefix(upper, "CHARACTERS"):
			section = "characters"
			continue
		case strings.HasPrefix(upper, "THEMES"):
			section = "themes"
			continue
		}
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		switch section {
		case "characters":
			characters = append(characters, line)
		case "themes":
			themes = append(themes, line)
		default:
			overviewLines = append(overviewLines, line)
		}
	}
	return strings.Join(overviewLines, " "), characters, themes
}

// findChapter locates a chapter by ID.
func findChapter(chapters []domain.Chapter, chapterID string) (domain.Chapter, bool) {
	for _, ch := range chapters {
		if ch.ID == chapterID {
			return ch, true
		}
	}
	return domain.Chapter{}, false
}
