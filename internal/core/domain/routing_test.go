package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute_Valid(t *testing.T) {
	assert.True(t, RouteBook.Valid())
	assert.True(t, RouteNotBook.Valid())
	assert.True(t, RouteAmbiguous.Valid())
	assert.False(t, Route("MAYBE").Valid())
	assert.False(t, Route("").Valid())
}

func TestNormalizeQuestion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"What color were Frankenstein's eyes?", "what color were frankenstein's eyes"},
		{"  What   color  were his EYES?!  ", "what color were his eyes"},
		{"plain question", "plain question"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeQuestion(tt.in), "input %q", tt.in)
	}
}

func TestScope_Contains(t *testing.T) {
	s := NewScope([]string{"ch01", "ch02"})

	assert.True(t, s.Contains("ch01"))
	assert.False(t, s.Contains("ch09"))

	// Nil scope means whole book.
	var whole Scope
	assert.True(t, whole.Contains("anything"))
	assert.Nil(t, NewScope(nil))
}

func TestConceptMatches_ChapterIDs_Deduplicates(t *testing.T) {
	m := ConceptMatches{
		Entities: []ConceptItem{{ID: "e1", ChapterIDs: []string{"ch01", "ch02"}}},
		Themes:   []ConceptItem{{ID: "t1", ChapterIDs: []string{"ch02", "ch03"}}},
	}

	assert.Equal(t, []string{"ch01", "ch02", "ch03"}, m.ChapterIDs())
	assert.False(t, m.Empty())
	assert.True(t, ConceptMatches{}.Empty())
}
