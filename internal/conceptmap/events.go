package conceptmap

import (
	"context"
	"sort"

	"github.com/splap/bookqa/internal/core/domain"
)

// minPairSupport is the minimum paragraph co-occurrence count before an
// entity pair becomes an event candidate.
const minPairSupport = 3

// Labeler synthesises a short human-readable event label.
// LLM-backed when available; candidates fall back to a deterministic
// label built from the participants' canonical names.
type Labeler interface {
	// LabelEvent names the recurring interaction between participants,
	// given sample evidence excerpts.
	LabelEvent(ctx context.Context, participants []string, excerpts []string) (string, error)
}

// eventCandidate is a co-occurring entity pair above the support floor.
type eventCandidate struct {
	participants [2]string // canonical names, sorted
	support      int
	chapterIDs   []string
	evidence     []domain.EvidencePointer
}

// deriveEvents builds event candidates from pair co-occurrence counts.
// Surface-form pairs are folded onto canonical entities first, so
// "Victor"+"Elizabeth" and "Frankenstein"+"Elizabeth" count together.
func deriveEvents(pairs map[pairKey]int, entities []entity) []eventCandidate {
	// Alias -> canonical lookup.
	canonicalOf := make(map[string]string)
	mentionsOf := make(map[string][]entityMention, len(entities))
	for _, e := range entities {
		canonicalOf[e.canonical] = e.canonical
		for _, a := range e.aliases {
			canonicalOf[a] = e.canonical
		}
		mentionsOf[e.canonical] = e.mentions
	}

	folded := make(map[pairKey]int)
	for pk, count := range pairs {
		ca, okA := canonicalOf[pk.a]
		cb, okB := canonicalOf[pk.b]
		if !okA || !okB || ca == cb {
			continue
		}
		folded[makePairKey(ca, cb)] += count
	}

	keys := make([]pairKey, 0, len(folded))
	for pk, count := range folded {
		if count >= minPairSupport {
			keys = append(keys, pk)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if folded[keys[i]] != folded[keys[j]] {
			return folded[keys[i]] > folded[keys[j]]
		}
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})

	candidates := make([]eventCandidate, 0, len(keys))
	for _, pk := range keys {
		shared := sharedChapters(mentionsOf[pk.a], mentionsOf[pk.b])
		if len(shared) == 0 {
			continue
		}
		candidates = append(candidates, eventCandidate{
			participants: [2]string{pk.a, pk.b},
			support:      folded[pk],
			chapterIDs:   shared,
			evidence:     pairEvidence(mentionsOf[pk.a], shared),
		})
	}
	return candidates
}

// sharedChapters intersects the chapters of two mention sets, ranked by
// combined mention count and capped per item.
func sharedChapters(a, b []entityMention) []string {
	countA := make(map[string]int)
	for _, m := range a {
		countA[m.chapterID]++
	}
	combined := make(map[string]int)
	for _, m := range b {
		if countA[m.chapterID] > 0 {
			combined[m.chapterID] += countA[m.chapterID] + 1
		}
	}
	chapters := make([]string, 0, len(combined))
	for id := range combined {
		chapters = append(chapters, id)
	}
	sort.Slice(chapters, func(i, j int) bool {
		if combined[chapters[i]] != combined[chapters[j]] {
			return combined[chapters[i]] > combined[chapters[j]]
		}
		return chapters[i] < chapters[j]
	})
	if len(chapters) > domain.MaxChaptersPerItem {
		chapters = chapters[:domain.MaxChaptersPerItem]
	}
	return chapters
}

// pairEvidence picks evidence from the first participant's mentions in
// the shared chapters.
func pairEvidence(mentions []entityMention, chapterIDs []string) []domain.EvidencePointer {
	inShared := make(map[string]bool, len(chapterIDs))
	for _, id := range chapterIDs {
		inShared[id] = true
	}
	filtered := make([]entityMention, 0, len(mentions))
	for _, m := range mentions {
		if inShared[m.chapterID] {
			filtered = append(filtered, m)
		}
	}
	return mentionEvidence(filtered, evidencePerItem)
}

// eventItems labels candidates and converts them to concept items.
// A labelling failure on one candidate never drops the item: the
// deterministic participant label is used instead.
func eventItems(ctx context.Context, labeler Labeler, candidates []eventCandidate) ([]domain.ConceptItem, bool) {
	if len(candidates) > domain.MaxEvents {
		candidates = candidates[:domain.MaxEvents]
	}

	degraded := false
	items := make([]domain.ConceptItem, 0, len(candidates))
	for i, c := range candidates {
		label := ""
		if labeler != nil {
			excerpts := make([]string, 0, len(c.evidence))
			for _, ev := range c.evidence {
				excerpts = append(excerpts, ev.Excerpt)
			}
			if l, err := labeler.LabelEvent(ctx, c.participants[:], excerpts); err == nil && l != "" {
				label = l
			} else {
				degraded = true
			}
		} else {
			degraded = true
		}
		if label == "" {
			// Never leave an item unlabelled.
			label = "Encounter: " + c.participants[0] + " + " + c.participants[1]
		}

		items = append(items, domain.ConceptItem{
			ID:         itemID(domain.KindEvent, i),
			Label:      label,
			Kind:       domain.KindEvent,
			ChapterIDs: c.chapterIDs,
			Evidence:   c.evidence,
		})
	}
	return items, degraded
}
