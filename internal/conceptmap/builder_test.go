package conceptmap

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splap/bookqa/internal/core/domain"
)

// --- Mock capabilities ---

type mockCanonicalizer struct {
	mapping map[string]string
	err     error
}

func (m *mockCanonicalizer) Canonicalize(_ context.Context, _ []string) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.mapping, nil
}

type mockLabeler struct {
	label string
	err   error
}

func (m *mockLabeler) LabelEvent(_ context.Context, _ []string, _ []string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.label, nil
}

// --- Fixtures ---

// fixtureChapters builds chapters in which Victor and Elizabeth
// co-occur repeatedly, and Walton appears alone.
func fixtureChapters(n int) []ChapterInput {
	chapters := make([]ChapterInput, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("ch%02d", i+1)
		text := "Victor Frankenstein worked in his laboratory at Ingolstadt. " +
			"Victor Frankenstein spoke with Elizabeth about the experiment.\n\n" +
			"Elizabeth wrote to Victor Frankenstein about the family in Geneva. " +
			"The letters from Elizabeth troubled Victor Frankenstein deeply.\n\n" +
			"Walton recorded the events in his journal aboard the ship. " +
			"Walton admired the vast fields of ice."
		chunks := []domain.Chunk{
			{
				ID: domain.ChunkID(id, 0), BookID: "b1", ChapterID: id, Ordinal: 0,
				Text:      text,
				Embedding: []float32{float32(i%3) + 0.1, 0.5, 0.25, 0.8},
			},
		}
		chapters[i] = ChapterInput{
			Chapter: domain.Chapter{ID: id, BookID: "b1", Ordinal: i, Title: fmt.Sprintf("Chapter %d", i+1)},
			Text:    text,
			Chunks:  chunks,
		}
	}
	return chapters
}

// --- Tests ---

func TestBuild_InvalidInput(t *testing.T) {
	b := NewBuilder(nil, nil)

	_, err := b.Build(context.Background(), "", fixtureChapters(3))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = b.Build(context.Background(), "b1", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBuild_DeterministicWithoutLLM(t *testing.T) {
	b := NewBuilder(nil, nil)
	chapters := fixtureChapters(10)

	first, err := b.Build(context.Background(), "b1", chapters)
	require.NoError(t, err)
	second, err := b.Build(context.Background(), "b1", chapters)
	require.NoError(t, err)

	assert.Equal(t, first, second, "two builds over identical input must be identical")
	assert.True(t, first.Degraded, "no LLM capabilities means a degraded map")
}

func TestBuild_FindsRecurringEntities(t *testing.T) {
	b := NewBuilder(nil, nil)

	cm, err := b.Build(context.Background(), "b1", fixtureChapters(5))
	require.NoError(t, err)

	labels := make([]string, 0, len(cm.Entities))
	for _, e := range cm.Entities {
		labels = append(labels, e.Label)
	}
	assert.Contains(t, labels, "Victor Frankenstein")
	assert.Contains(t, labels, "Walton")

	for _, e := range cm.Entities {
		assert.NotEmpty(t, e.Label)
		assert.LessOrEqual(t, len(e.ChapterIDs), domain.MaxChaptersPerItem)
		assert.NotEmpty(t, e.Evidence, "entity %s should carry evidence", e.Label)
	}
}

func TestBuild_SingleTokenAliasesMergeIntoFullName(t *testing.T) {
	b := NewBuilder(nil, nil)

	cm, err := b.Build(context.Background(), "b1", fixtureChapters(5))
	require.NoError(t, err)

	// "Victor" alone appears in the text and must fold into
	// "Victor Frankenstein", not become its own entity.
	for _, e := range cm.Entities {
		assert.NotEqual(t, "Victor", e.Label, "bare alias should have merged")
	}
}

func TestBuild_LLMCanonicalizerApplied(t *testing.T) {
	canon := &mockCanonicalizer{mapping: map[string]string{
		"Victor Frankenstein": "Victor Frankenstein",
		"Victor":              "Victor Frankenstein",
		"Elizabeth":           "Elizabeth Lavenza",
		"Walton":              "Robert Walton",
		"Ingolstadt":          "Ingolstadt",
		"Geneva":              "Geneva",
	}}
	b := NewBuilder(canon, &mockLabeler{label: "Correspondence between Victor and Elizabeth"})

	cm, err := b.Build(context.Background(), "b1", fixtureChapters(5))
	require.NoError(t, err)

	labels := make([]string, 0, len(cm.Entities))
	for _, e := range cm.Entities {
		labels = append(labels, e.Label)
	}
	assert.Contains(t, labels, "Elizabeth Lavenza")
	assert.Contains(t, labels, "Robert Walton")
	assert.False(t, cm.Degraded)
}

func TestBuild_EventsFromCoOccurringPairs(t *testing.T) {
	b := NewBuilder(nil, nil)

	cm, err := b.Build(context.Background(), "b1", fixtureChapters(5))
	require.NoError(t, err)

	require.NotEmpty(t, cm.Events, "Victor and Elizabeth co-occur repeatedly")
	for _, ev := range cm.Events {
		assert.NotEmpty(t, ev.Label, "events are never unlabelled")
		assert.LessOrEqual(t, len(ev.ChapterIDs), domain.MaxChaptersPerItem)
	}
	// Deterministic fallback label shape.
	assert.Contains(t, cm.Events[0].Label, "Encounter: ")
}

func TestBuild_LabelerFailureFallsBackDeterministically(t *testing.T) {
	b := NewBuilder(nil, &mockLabeler{err: errors.New("model offline")})

	cm, err := b.Build(context.Background(), "b1", fixtureChapters(5))
	require.NoError(t, err, "labelling failure must not abort the build")

	require.NotEmpty(t, cm.Events)
	assert.Contains(t, cm.Events[0].Label, "Encounter: ")
	assert.True(t, cm.Degraded)
}

func TestBuild_CapsRespected(t *testing.T) {
	b := NewBuilder(nil, nil)

	cm, err := b.Build(context.Background(), "b1", fixtureChapters(30))
	require.NoError(t, err)

	assert.LessOrEqual(t, len(cm.Entities), domain.MaxEntities)
	assert.LessOrEqual(t, len(cm.Themes), domain.MaxThemes)
	assert.LessOrEqual(t, len(cm.Events), domain.MaxEvents)
	for _, group := range [][]domain.ConceptItem{cm.Entities, cm.Themes, cm.Events} {
		for _, item := range group {
			assert.LessOrEqual(t, len(item.ChapterIDs), domain.MaxChaptersPerItem)
		}
	}
}

func TestBuild_ThemesCoverChapters(t *testing.T) {
	b := NewBuilder(nil, nil)

	cm, err := b.Build(context.Background(), "b1", fixtureChapters(10))
	require.NoError(t, err)

	require.NotEmpty(t, cm.Themes)
	covered := make(map[string]bool)
	for _, th := range cm.Themes {
		assert.NotEmpty(t, th.Label)
		for _, id := range th.ChapterIDs {
			covered[id] = true
		}
	}
	assert.Len(t, covered, 10, "every chapter belongs to some theme")
}

func TestLookup_MatchesLabelsAndAliases(t *testing.T) {
	cm := &domain.ConceptMap{
		BookID: "b1",
		Entities: []domain.ConceptItem{
			{ID: "entity-000", Label: "Victor Frankenstein", Aliases: []string{"Victor"},
				ChapterIDs: []string{"ch01"}},
		},
		Themes: []domain.ConceptItem{
			{ID: "theme-000", Label: "ice, ship, journal", ChapterIDs: []string{"ch02"}},
		},
	}

	matches := Lookup(cm, "What color were Frankenstein's eyes?")
	require.Len(t, matches.Entities, 1)
	assert.Equal(t, "Victor Frankenstein", matches.Entities[0].Label)
	assert.Equal(t, []string{"ch01"}, matches.ChapterIDs())

	matches = Lookup(cm, "the ship in the ice")
	assert.Len(t, matches.Themes, 1)

	assert.True(t, Lookup(cm, "").Empty())
	assert.True(t, Lookup(cm, "unrelated query about capitals").Empty())
}
