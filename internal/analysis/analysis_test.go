package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize("Victor Frankenstein's eyes were watery.")

	assert.Equal(t, []string{"victor", "frankenstein's", "eyes", "were", "watery"}, tokens)
}

func TestTokenize_Empty(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("1234 !!!"))
}

func TestTokenizeFiltered_DropsStopwords(t *testing.T) {
	tokens := TokenizeFiltered("the monster was on the ice")

	assert.Equal(t, []string{"monster", "ice"}, tokens)
}

func TestBigrams_SkipsStopwordPairs(t *testing.T) {
	grams := Bigrams([]string{"pale", "student", "of", "unhallowed", "arts"})

	assert.Equal(t, []string{"pale student", "unhallowed arts"}, grams)
}

func TestSplitSentences(t *testing.T) {
	sentences := SplitSentences("It was November. I collected the instruments! Was it alive?")

	assert.Len(t, sentences, 3)
	assert.Equal(t, "It was November.", sentences[0])
}

func TestSplitParagraphs(t *testing.T) {
	paragraphs := SplitParagraphs("First paragraph.\n\nSecond paragraph.\n\n\n\nThird.")

	assert.Equal(t, []string{"First paragraph.", "Second paragraph.", "Third."}, paragraphs)
}

func TestExcerpt_CutsAtWordBoundary(t *testing.T) {
	got := Excerpt("one two three four five", 13)

	assert.Equal(t, "one two three...", got)
}

func TestExcerpt_ShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short", 100))
}
