package domain

// Concept map caps. Applied at assembly time, before persisting.
const (
	// MaxEntities bounds the entity list per book.
	MaxEntities = 500

	// MaxThemes bounds the theme list per book.
	MaxThemes = 200

	// MaxEvents bounds the event list per book.
	MaxEvents = 500

	// MaxChaptersPerItem bounds chapter_ids per concept item. When more
	// chapters qualify, the strongest by evidence are kept.
	MaxChaptersPerItem = 24
)

// ConceptKind classifies a concept item.
type ConceptKind string

const (
	// KindEntity is a person, place, organisation or other named thing.
	KindEntity ConceptKind = "entity"

	// KindTheme is a cluster of chapters sharing subject matter.
	KindTheme ConceptKind = "theme"

	// KindEvent is a recurring interaction between entities.
	KindEvent ConceptKind = "event"
)

// EntityType subdivides entities.
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityPlace        EntityType = "place"
	EntityOrganisation EntityType = "organisation"
	EntityOther        EntityType = "other"
)

// EvidencePointer is a weak reference into the chunk store. It never
// carries the chunk itself, to avoid duplicating book text.
type EvidencePointer struct {
	// ChunkID identifies the supporting chunk.
	ChunkID string

	// Excerpt is a short quote from the chunk.
	Excerpt string
}

// ConceptItem is one entry in the concept map: an entity, theme or event.
type ConceptItem struct {
	// ID is the unique identifier within the book's concept map.
	ID string

	// Label is the human-readable name. Never empty: LLM-backed
	// labelling falls back to a deterministic label.
	Label string

	// Kind is entity, theme or event.
	Kind ConceptKind

	// EntityType is set for entities only.
	EntityType EntityType

	// Aliases holds alternate surface forms merged into this item.
	Aliases []string

	// ChapterIDs lists chapters where this concept appears, capped at
	// MaxChaptersPerItem by evidence strength.
	ChapterIDs []string

	// Evidence points at supporting chunks.
	Evidence []EvidencePointer
}

// ConceptMap is the compact book-level routing structure. Built once per
// book after embedding completes; immutable thereafter; invalidated only
// by re-ingesting the book.
type ConceptMap struct {
	// BookID identifies the book.
	BookID string

	// Entities, Themes and Events are the concept items by kind,
	// already capped per the invariants above.
	Entities []ConceptItem
	Themes   []ConceptItem
	Events   []ConceptItem

	// Degraded is true when LLM-backed canonicalisation or labelling
	// was unavailable and the map was built from deterministic signals
	// only.
	Degraded bool
}

// ConceptMatches groups lookup results by kind.
type ConceptMatches struct {
	Entities []ConceptItem
	Themes   []ConceptItem
	Events   []ConceptItem
}

// Empty reports whether the lookup found nothing.
func (m ConceptMatches) Empty() bool {
	return len(m.Entities) == 0 && len(m.Themes) == 0 && len(m.Events) == 0
}

// ChapterIDs returns the union of chapter IDs across all matches,
// preserving first-seen order.
func (m ConceptMatches) ChapterIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, group := range [][]ConceptItem{m.Entities, m.Themes, m.Events} {
		for _, item := range group {
			for _, id := range item.ChapterIDs {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}
	return ids
}
