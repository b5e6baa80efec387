package conceptmap

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/splap/bookqa/internal/analysis"
	"github.com/splap/bookqa/internal/core/domain"
)

// keywordLimit bounds the TF-IDF keyword vector per chapter.
const keywordLimit = 50

// ChapterInput is one chapter's material for the builder.
type ChapterInput struct {
	Chapter domain.Chapter
	Text    string
	Chunks  []domain.Chunk
}

// entityMention is one occurrence of an entity candidate.
type entityMention struct {
	chapterID string
	chunkID   string
	excerpt   string
}

// pairKey identifies an unordered entity pair, names sorted.
type pairKey struct {
	a, b string
}

func makePairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// chapterSignals holds the deterministic per-chapter extraction output.
type chapterSignals struct {
	chapterID string
	ordinal   int

	// keywords is the TF-IDF vector over unigrams and bigrams, with
	// document frequency computed across this book's chapters.
	keywords map[string]float64

	// centroid is the mean of the chapter's chunk embeddings, nil when
	// no chunk has an embedding.
	centroid []float32
}

// extractSignals runs stage one over all chapters. It returns per-chapter
// signals, entity candidate mentions keyed by surface form, and
// co-occurrence counts for candidate pairs seen in the same paragraph.
func extractSignals(chapters []ChapterInput) (
	signals []chapterSignals,
	mentions map[string][]entityMention,
	pairs map[pairKey]int,
) {
	mentions = make(map[string][]entityMention)
	pairs = make(map[pairKey]int)

	// Document frequency over chapters for TF-IDF.
	df := make(map[string]int)
	perChapterTF := make([]map[string]int, len(chapters))

	for i, ch := range chapters {
		tf := make(map[string]int)
		tokens := analysis.TokenizeFiltered(ch.Text)
		for _, tok := range tokens {
			tf[tok]++
		}
		for _, gram := range analysis.Bigrams(analysis.Tokenize(ch.Text)) {
			tf[gram]++
		}
		perChapterTF[i] = tf

		seen := make(map[string]bool, len(tf))
		for term := range tf {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}

		collectEntityMentions(ch, mentions, pairs)
	}

	n := float64(len(chapters))
	signals = make([]chapterSignals, len(chapters))
	for i, ch := range chapters {
		keywords := make(map[string]float64)
		for term, count := range perChapterTF[i] {
			idf := math.Log((1+n)/(1+float64(df[term]))) + 1
			keywords[term] = float64(count) * idf
		}
		signals[i] = chapterSignals{
			chapterID: ch.Chapter.ID,
			ordinal:   ch.Chapter.Ordinal,
			keywords:  topKeywords(keywords, keywordLimit),
			centroid:  chapterCentroid(ch.Chunks),
		}
	}
	return signals, mentions, pairs
}

// collectEntityMentions finds capitalized spans per paragraph and links
// spans sharing a paragraph as candidate pairs for event derivation.
func collectEntityMentions(ch ChapterInput, mentions map[string][]entityMention, pairs map[pairKey]int) {
	for _, paragraph := range analysis.SplitParagraphs(ch.Text) {
		spans := capitalizedSpans(paragraph)
		if len(spans) == 0 {
			continue
		}

		chunkID, excerpt := locateChunk(ch.Chunks, paragraph)
		inParagraph := make(map[string]bool, len(spans))
		for _, span := range spans {
			if !inParagraph[span] {
				inParagraph[span] = true
				mentions[span] = append(mentions[span], entityMention{
					chapterID: ch.Chapter.ID,
					chunkID:   chunkID,
					excerpt:   excerpt,
				})
			}
		}

		names := make([]string, 0, len(inParagraph))
		for name := range inParagraph {
			names = append(names, name)
		}
		sort.Strings(names)
		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				pairs[makePairKey(names[i], names[j])]++
			}
		}
	}
}

// capitalizedSpans extracts multi-word or salient capitalized runs from
// a paragraph, skipping sentence-initial words that are otherwise
// lowercase in the text.
func capitalizedSpans(paragraph string) []string {
	sentences := analysis.SplitSentences(paragraph)
	var spans []string

	for _, sentence := range sentences {
		words := strings.Fields(sentence)
		var run []string
		for i, word := range words {
			cleaned := strings.TrimFunc(word, func(r rune) bool {
				return !unicode.IsLetter(r) && r != '\''
			})
			if cleaned != "" && unicode.IsUpper([]rune(cleaned)[0]) && !titleStopword(cleaned) {
				// A capitalized sentence opener is only a candidate when
				// it continues a run or is not a common word.
				if i == 0 && len(run) == 0 && analysis.IsStopword(strings.ToLower(cleaned)) {
					continue
				}
				run = append(run, cleaned)
				continue
			}
			if len(run) > 0 {
				spans = append(spans, strings.Join(run, " "))
				run = nil
			}
		}
		if len(run) > 0 {
			spans = append(spans, strings.Join(run, " "))
		}
	}

	// First-word-only candidates are noisy; keep spans that are either
	// multi-word or recur later, which the caller decides via counts.
	return spans
}

// titleStopword filters capitalized words that are never entity parts.
func titleStopword(word string) bool {
	switch word {
	case "I", "A", "An", "The", "But", "And", "Or", "It", "He", "She",
		"They", "We", "You", "My", "His", "Her", "Their", "Our", "This",
		"That", "What", "When", "Where", "Why", "How", "Yet", "On", "In",
		"At", "As", "If", "So", "No", "Not", "Now", "Then", "There",
		"Chapter", "Letter":
		return true
	}
	return false
}

// locateChunk finds the chunk containing the paragraph's head, for
// evidence pointers. Falls back to the chapter's first chunk.
func locateChunk(chunks []domain.Chunk, paragraph string) (chunkID, excerpt string) {
	if len(chunks) == 0 {
		return "", ""
	}
	head := analysis.Excerpt(paragraph, 80)
	probe := strings.TrimSuffix(head, "...")
	for _, ch := range chunks {
		if strings.Contains(ch.Text, probe) {
			return ch.ID, head
		}
	}
	return chunks[0].ID, head
}

// chapterCentroid is the mean of the chapter's chunk embeddings.
func chapterCentroid(chunks []domain.Chunk) []float32 {
	var sum []float64
	count := 0
	for _, ch := range chunks {
		if len(ch.Embedding) == 0 {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(ch.Embedding))
		}
		for i, v := range ch.Embedding {
			sum[i] += float64(v)
		}
		count++
	}
	if count == 0 {
		return nil
	}
	centroid := make([]float32, len(sum))
	for i, v := range sum {
		centroid[i] = float32(v / float64(count))
	}
	return centroid
}

// topKeywords keeps the n highest-weighted terms. Ties break by term so
// the result is deterministic.
func topKeywords(weights map[string]float64, n int) map[string]float64 {
	if len(weights) <= n {
		return weights
	}
	terms := make([]string, 0, len(weights))
	for term := range weights {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if weights[terms[i]] != weights[terms[j]] {
			return weights[terms[i]] > weights[terms[j]]
		}
		return terms[i] < terms[j]
	})
	kept := make(map[string]float64, n)
	for _, term := range terms[:n] {
		kept[term] = weights[term]
	}
	return kept
}
