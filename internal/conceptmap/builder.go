package conceptmap

import (
	"context"
	"fmt"
	"strings"

	"github.com/splap/bookqa/internal/core/domain"
	"github.com/splap/bookqa/internal/logger"
)

// Builder assembles a book's concept map. Canonicalizer and Labeler are
// optional; when nil or failing the builder produces a degraded map
// from deterministic signals only. It never fails outright once the
// input is valid.
type Builder struct {
	canonicalizer Canonicalizer
	labeler       Labeler
}

// NewBuilder creates a builder. Both capabilities may be nil.
func NewBuilder(canonicalizer Canonicalizer, labeler Labeler) *Builder {
	return &Builder{canonicalizer: canonicalizer, labeler: labeler}
}

// Build runs all five stages over the book's chapters and returns the
// capped, immutable concept map.
func (b *Builder) Build(ctx context.Context, bookID string, chapters []ChapterInput) (*domain.ConceptMap, error) {
	if bookID == "" {
		return nil, fmt.Errorf("%w: missing book ID", domain.ErrInvalidInput)
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("%w: no chapters", domain.ErrInvalidInput)
	}

	logger.Section("Concept Map Build")
	logger.Info("Book %s: %d chapters", bookID, len(chapters))

	// Stage 1: per-chapter signals.
	signals, mentions, pairs := extractSignals(chapters)
	logger.Debug("Signals: %d entity surface forms, %d co-occurrence pairs", len(mentions), len(pairs))

	// Stage 2: entity canonicalisation (LLM-backed with fallback).
	entities, entitiesDegraded := canonicalizeEntities(ctx, b.canonicalizer, mentions)
	logger.Debug("Entities: %d after canonicalisation (degraded=%t)", len(entities), entitiesDegraded)

	// Stage 3: theme clustering over blended chapter similarity.
	clusters := clusterChapters(signals)
	logger.Debug("Themes: %d clusters", len(clusters))

	// Stage 4: event derivation from co-occurring entity pairs.
	candidates := deriveEvents(pairs, entities)
	events, eventsDegraded := eventItems(ctx, b.labeler, candidates)
	logger.Debug("Events: %d from %d candidates (degraded=%t)", len(events), len(candidates), eventsDegraded)

	// Stage 5: capped assembly.
	cm := &domain.ConceptMap{
		BookID:   bookID,
		Entities: entityItems(entities),
		Themes:   themeItems(clusters, signals, chapters),
		Events:   events,
		Degraded: entitiesDegraded || eventsDegraded,
	}

	logger.Info("Concept map: %d entities, %d themes, %d events",
		len(cm.Entities), len(cm.Themes), len(cm.Events))
	return cm, nil
}

// Lookup matches a free-text query against a concept map's labels and
// aliases. Pure string matching, deterministic, no LLM involvement.
func Lookup(cm *domain.ConceptMap, query string) domain.ConceptMatches {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return domain.ConceptMatches{}
	}
	return domain.ConceptMatches{
		Entities: matchItems(cm.Entities, terms),
		Themes:   matchItems(cm.Themes, terms),
		Events:   matchItems(cm.Events, terms),
	}
}

// queryTerms lowercases and splits the query, dropping one-letter
// tokens.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "\"'?.,!")
		if len(f) > 1 {
			terms = append(terms, f)
		}
	}
	return terms
}

// matchItems keeps items whose label or aliases contain a query term.
func matchItems(items []domain.ConceptItem, terms []string) []domain.ConceptItem {
	var matched []domain.ConceptItem
	for _, item := range items {
		haystack := strings.ToLower(item.Label)
		for _, a := range item.Aliases {
			haystack += " " + strings.ToLower(a)
		}
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				matched = append(matched, item)
				break
			}
		}
	}
	return matched
}

// itemID builds a deterministic concept item identifier.
func itemID(kind domain.ConceptKind, i int) string {
	return fmt.Sprintf("%s-%03d", kind, i)
}

// containsAnyKeyword reports whether text contains any of the keywords.
func containsAnyKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// excerptFor returns a snippet around the first keyword hit.
func excerptFor(text string, keywords []string) string {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if pos := strings.Index(lower, kw); pos >= 0 {
			start := pos - 60
			if start < 0 {
				start = 0
			}
			end := pos + 120
			if end > len(text) {
				end = len(text)
			}
			return strings.TrimSpace(text[start:end])
		}
	}
	if len(text) > 120 {
		return strings.TrimSpace(text[:120])
	}
	return strings.TrimSpace(text)
}
