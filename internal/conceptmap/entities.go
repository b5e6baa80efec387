package conceptmap

import (
	"context"
	"sort"
	"strings"

	"github.com/splap/bookqa/internal/core/domain"
)

// minMentions is the support needed before a capitalized span is kept
// as an entity. Single sightings are mostly sentence-opener noise.
const minMentions = 2

// evidencePerItem bounds evidence pointers per concept item.
const evidencePerItem = 5

// Canonicalizer merges entity alias candidates into canonical names.
// LLM-backed when available; the builder falls back to deterministic
// normalisation when it fails or is absent.
type Canonicalizer interface {
	// Canonicalize maps each input surface form to a canonical name.
	// Unknown forms may be omitted; the caller keeps them as-is.
	Canonicalize(ctx context.Context, names []string) (map[string]string, error)
}

// entity is a merged candidate during assembly.
type entity struct {
	canonical string
	aliases   []string
	mentions  []entityMention
}

// honorifics stripped during deterministic normalisation.
var honorifics = []string{
	"Dr.", "Dr", "Mr.", "Mr", "Mrs.", "Mrs", "Miss", "Ms.", "Ms",
	"Sir", "Lady", "Lord", "Captain", "Professor", "Madame", "Monsieur",
}

// normalizeName strips honorifics and trailing possessives.
func normalizeName(name string) string {
	words := strings.Fields(name)
	for len(words) > 0 {
		stripped := false
		for _, h := range honorifics {
			if words[0] == h {
				words = words[1:]
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	joined := strings.Join(words, " ")
	return strings.TrimSuffix(joined, "'s")
}

// canonicalizeEntities merges alias candidates. The LLM capability is
// consulted when present; merge decisions that fail or are unavailable
// fall back to the deterministic rules: equal normalised names merge,
// and a single-token name merges into the multi-word name containing it
// as a word.
func canonicalizeEntities(
	ctx context.Context,
	canon Canonicalizer,
	mentions map[string][]entityMention,
) ([]entity, bool) {
	// Deterministic iteration: surface forms sorted, multi-word first
	// so short aliases attach to already-placed full names.
	surfaces := make([]string, 0, len(mentions))
	for surface, ms := range mentions {
		if len(ms) >= minMentions {
			surfaces = append(surfaces, surface)
		}
	}
	sort.Slice(surfaces, func(i, j int) bool {
		wi, wj := len(strings.Fields(surfaces[i])), len(strings.Fields(surfaces[j]))
		if wi != wj {
			return wi > wj
		}
		return surfaces[i] < surfaces[j]
	})

	aliasOf := make(map[string]string, len(surfaces))
	degraded := true
	if canon != nil {
		if mapped, err := canon.Canonicalize(ctx, surfaces); err == nil {
			for surface, canonical := range mapped {
				if canonical != "" {
					aliasOf[surface] = canonical
				}
			}
			degraded = false
		}
	}

	byCanonical := make(map[string]*entity)
	var order []string

	for _, surface := range surfaces {
		canonical, ok := aliasOf[surface]
		if !ok {
			canonical = normalizeName(surface)
			if canonical == "" {
				canonical = surface
			}
			// Attach a single-token name to an existing full name
			// containing it as a word.
			if !strings.Contains(canonical, " ") {
				for _, placed := range order {
					if containsWord(placed, canonical) {
						canonical = placed
						break
					}
				}
			}
		}

		e, ok := byCanonical[canonical]
		if !ok {
			e = &entity{canonical: canonical}
			byCanonical[canonical] = e
			order = append(order, canonical)
		}
		if surface != canonical {
			e.aliases = append(e.aliases, surface)
		}
		e.mentions = append(e.mentions, mentions[surface]...)
	}

	entities := make([]entity, 0, len(order))
	for _, canonical := range order {
		entities = append(entities, *byCanonical[canonical])
	}
	return entities, degraded
}

// containsWord reports whether full contains name as a whole word.
func containsWord(full, name string) bool {
	for _, w := range strings.Fields(full) {
		if w == name {
			return true
		}
	}
	return false
}

// classifyEntity assigns a type from surface cues. Places carry
// locative markers; organisations carry institutional ones; the rest
// default to person, which dominates in fiction.
func classifyEntity(e entity) domain.EntityType {
	lower := strings.ToLower(e.canonical)
	for _, marker := range []string{"university", "college", "court", "company", "society", "council"} {
		if strings.Contains(lower, marker) {
			return domain.EntityOrganisation
		}
	}
	for _, marker := range []string{"lake", "mountain", "mont", "valley", "river", "sea", "island",
		"city", "town", "village", "harbor", "harbour", "castle", "abbey", "street", "bridge"} {
		if strings.Contains(lower, marker) {
			return domain.EntityPlace
		}
	}
	if strings.Contains(e.canonical, " ") || len(e.mentions) >= minMentions {
		return domain.EntityPerson
	}
	return domain.EntityOther
}

// entityItems converts merged entities into capped concept items.
// Chapter lists are capped at MaxChaptersPerItem by evidence strength
// (mention count, descending).
func entityItems(entities []entity) []domain.ConceptItem {
	// Strongest entities first: mention count desc, canonical asc.
	sort.Slice(entities, func(i, j int) bool {
		if len(entities[i].mentions) != len(entities[j].mentions) {
			return len(entities[i].mentions) > len(entities[j].mentions)
		}
		return entities[i].canonical < entities[j].canonical
	})
	if len(entities) > domain.MaxEntities {
		entities = entities[:domain.MaxEntities]
	}

	items := make([]domain.ConceptItem, 0, len(entities))
	for i, e := range entities {
		sort.Strings(e.aliases)
		items = append(items, domain.ConceptItem{
			ID:         itemID(domain.KindEntity, i),
			Label:      e.canonical,
			Kind:       domain.KindEntity,
			EntityType: classifyEntity(e),
			Aliases:    dedupe(e.aliases),
			ChapterIDs: strongestChapters(e.mentions, domain.MaxChaptersPerItem),
			Evidence:   mentionEvidence(e.mentions, evidencePerItem),
		})
	}
	return items
}

// strongestChapters ranks chapters by mention count and keeps max.
func strongestChapters(mentions []entityMention, max int) []string {
	counts := make(map[string]int)
	for _, m := range mentions {
		counts[m.chapterID]++
	}
	chapters := make([]string, 0, len(counts))
	for id := range counts {
		chapters = append(chapters, id)
	}
	sort.Slice(chapters, func(i, j int) bool {
		if counts[chapters[i]] != counts[chapters[j]] {
			return counts[chapters[i]] > counts[chapters[j]]
		}
		return chapters[i] < chapters[j]
	})
	if len(chapters) > max {
		chapters = chapters[:max]
	}
	return chapters
}

// mentionEvidence converts mentions to capped evidence pointers,
// skipping mentions without a resolvable chunk.
func mentionEvidence(mentions []entityMention, max int) []domain.EvidencePointer {
	var evidence []domain.EvidencePointer
	seen := make(map[string]bool)
	for _, m := range mentions {
		if m.chunkID == "" || seen[m.chunkID] {
			continue
		}
		seen[m.chunkID] = true
		evidence = append(evidence, domain.EvidencePointer{ChunkID: m.chunkID, Excerpt: m.excerpt})
		if len(evidence) == max {
			break
		}
	}
	return evidence
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
