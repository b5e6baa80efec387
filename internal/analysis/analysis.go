// Package analysis provides the shared text analysis used by the lexical
// index and the concept map builder: tokenisation, stopword filtering
// and sentence splitting. Both search modalities must tokenise
// identically so that scores stay comparable across a book.
package analysis

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// Tokenize lowercases text and extracts word tokens. Apostrophes inside
// words are kept ("frankenstein's" is one token).
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// TokenizeFiltered tokenises and drops stopwords.
func TokenizeFiltered(text string) []string {
	tokens := Tokenize(text)
	filtered := tokens[:0]
	for _, tok := range tokens {
		if !IsStopword(tok) {
			filtered = append(filtered, tok)
		}
	}
	return filtered
}

// IsStopword reports whether the token is a common English stopword.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// Bigrams returns adjacent token pairs joined with a space.
// Pairs containing a stopword are skipped.
func Bigrams(tokens []string) []string {
	if len(tokens) < 2 {
		return nil
	}
	grams := make([]string, 0, len(tokens)-1)
	for i := 0; i < len(tokens)-1; i++ {
		if IsStopword(tokens[i]) || IsStopword(tokens[i+1]) {
			continue
		}
		grams = append(grams, tokens[i]+" "+tokens[i+1])
	}
	return grams
}

// SplitSentences splits text on sentence terminators and newlines.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// SplitParagraphs splits text on blank lines.
func SplitParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// Excerpt returns the leading portion of text, cut at a word boundary,
// with an ellipsis when truncated.
func Excerpt(text string, maxLen int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= maxLen {
		return text
	}
	// Include the character after the limit so a word ending exactly at
	// maxLen is kept whole.
	cut := strings.LastIndex(text[:maxLen+1], " ")
	if cut <= 0 {
		cut = maxLen
	}
	return text[:cut] + "..."
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "had": {}, "has": {},
	"have": {}, "he": {}, "her": {}, "him": {}, "his": {}, "i": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "me": {}, "my": {}, "not": {},
	"of": {}, "on": {}, "or": {}, "s": {}, "she": {}, "so": {}, "that": {},
	"the": {}, "their": {}, "them": {}, "then": {}, "there": {},
	"they": {}, "this": {}, "to": {}, "was": {}, "we": {}, "were": {},
	"what": {}, "when": {}, "which": {}, "who": {}, "will": {},
	"with": {}, "would": {}, "you": {}, "your": {},
}
