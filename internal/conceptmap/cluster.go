package conceptmap

import (
	"math"
	"sort"

	"github.com/splap/bookqa/internal/core/domain"
)

// Similarity blend weights: chapter similarity is a weighted mix of
// semantic centroid cosine and TF-IDF keyword cosine.
const (
	centroidWeight = 0.70
	keywordWeight  = 0.30
)

// Target cluster count range. The cut threshold is searched per book
// until the count lands in range; the hard cap applies regardless.
const (
	minThemes  = 25
	maxThemes  = 100
	themeCap   = domain.MaxThemes
	sharedKeys = 8 // shared keywords kept as theme evidence
)

// chapterSimilarity computes the blended similarity between two
// chapters' signals. Missing centroids fall back to keyword similarity
// alone.
func chapterSimilarity(a, b chapterSignals) float64 {
	kw := keywordCosine(a.keywords, b.keywords)
	if a.centroid == nil || b.centroid == nil {
		return kw
	}
	return centroidWeight*centroidCosine(a.centroid, b.centroid) + keywordWeight*kw
}

func centroidCosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func keywordCosine(a, b map[string]float64) float64 {
	var dot, na, nb float64
	for term, w := range a {
		na += w * w
		if bw, ok := b[term]; ok {
			dot += w * bw
		}
	}
	for _, w := range b {
		nb += w * w
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// cluster is a set of chapter indexes during agglomeration.
type cluster struct {
	members []int // indexes into the signals slice, ascending
}

// agglomerate runs average-linkage hierarchical clustering over the
// chapter distance matrix (distance = 1 - similarity) and cuts at the
// given threshold. Deterministic: merge ties break by the lowest
// chapter-pair ordinal, and no step is randomised.
func agglomerate(dist [][]float64, threshold float64) []cluster {
	n := len(dist)
	clusters := make([]cluster, n)
	for i := range clusters {
		clusters[i] = cluster{members: []int{i}}
	}

	for len(clusters) > 1 {
		bestI, bestJ := -1, -1
		bestDist := math.Inf(1)

		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				d := linkage(dist, clusters[i], clusters[j])
				// Strict less: on equal distance the earlier (i, j)
				// pair wins, and pairs iterate in ascending ordinal
				// order already.
				if d < bestDist {
					bestDist = d
					bestI, bestJ = i, j
				}
			}
		}

		if bestDist > threshold {
			break
		}

		merged := append([]int{}, clusters[bestI].members...)
		merged = append(merged, clusters[bestJ].members...)
		sort.Ints(merged)

		next := make([]cluster, 0, len(clusters)-1)
		for idx, c := range clusters {
			if idx != bestI && idx != bestJ {
				next = append(next, c)
			}
		}
		clusters = append(next, cluster{members: merged})
	}

	// Stable output order: by each cluster's lowest chapter ordinal.
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].members[0] < clusters[j].members[0]
	})
	return clusters
}

// linkage is the average pairwise distance between two clusters.
func linkage(dist [][]float64, a, b cluster) float64 {
	var sum float64
	for _, i := range a.members {
		for _, j := range b.members {
			sum += dist[i][j]
		}
	}
	return sum / float64(len(a.members)*len(b.members))
}

// clusterChapters cuts the dendrogram at a threshold searched by
// binary search until the cluster count falls in [minThemes, maxThemes].
// Books with fewer chapters than minThemes use one cluster per natural
// group that the lowest threshold produces.
func clusterChapters(signals []chapterSignals) []cluster {
	n := len(signals)
	if n == 0 {
		return nil
	}

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			if i != j {
				dist[i][j] = 1 - chapterSimilarity(signals[i], signals[j])
			}
		}
	}

	// Short books cannot reach the target range; every chapter that
	// clusters at a moderate threshold does, the rest stay singletons.
	if n <= minThemes {
		return agglomerate(dist, 0.5)
	}

	lo, hi := 0.0, 2.0
	var result []cluster
	for iter := 0; iter < 32; iter++ {
		mid := (lo + hi) / 2
		result = agglomerate(dist, mid)
		count := len(result)
		switch {
		case count > maxThemes:
			lo = mid // higher threshold merges more, lowering the count
		case count < minThemes:
			hi = mid
		default:
			return result
		}
	}

	// The search did not converge into range; enforce the hard cap.
	if len(result) > themeCap {
		result = agglomerate(dist, 2.0)
		if len(result) > themeCap {
			result = result[:themeCap]
		}
	}
	return result
}

// themeItems converts clusters into theme concept items. Evidence is
// the top shared keywords across the cluster's chapters.
func themeItems(clusters []cluster, signals []chapterSignals, chapters []ChapterInput) []domain.ConceptItem {
	items := make([]domain.ConceptItem, 0, len(clusters))
	for i, c := range clusters {
		if len(items) == themeCap {
			break
		}

		shared := sharedKeywords(c, signals)
		chapterIDs := make([]string, 0, len(c.members))
		for _, m := range c.members {
			chapterIDs = append(chapterIDs, signals[m].chapterID)
		}
		if len(chapterIDs) > domain.MaxChaptersPerItem {
			chapterIDs = chapterIDs[:domain.MaxChaptersPerItem]
		}

		items = append(items, domain.ConceptItem{
			ID:         itemID(domain.KindTheme, i),
			Label:      themeLabel(shared, chapters, c),
			Kind:       domain.KindTheme,
			ChapterIDs: chapterIDs,
			Evidence:   keywordEvidence(shared, c, signals, chapters),
		})
	}
	return items
}

// sharedKeywords ranks keywords by summed weight across the cluster.
func sharedKeywords(c cluster, signals []chapterSignals) []string {
	weights := make(map[string]float64)
	for _, m := range c.members {
		for term, w := range signals[m].keywords {
			weights[term] += w
		}
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
	if len(terms) > sharedKeys {
		terms = terms[:sharedKeys]
	}
	return terms
}

// themeLabel builds a readable label from the strongest shared keywords.
func themeLabel(shared []string, chapters []ChapterInput, c cluster) string {
	if len(shared) == 0 {
		if len(c.members) > 0 && chapters[c.members[0]].Chapter.Title != "" {
			return chapters[c.members[0]].Chapter.Title
		}
		return "Theme"
	}
	n := 3
	if len(shared) < n {
		n = len(shared)
	}
	label := shared[0]
	for _, term := range shared[1:n] {
		label += ", " + term
	}
	return label
}

// keywordEvidence points keyword evidence at the first chunk of each
// member chapter that contains a shared keyword.
func keywordEvidence(shared []string, c cluster, signals []chapterSignals, chapters []ChapterInput) []domain.EvidencePointer {
	var evidence []domain.EvidencePointer
	for _, m := range c.members {
		if len(evidence) == evidencePerItem {
			break
		}
		for _, chunk := range chapters[m].Chunks {
			if containsAnyKeyword(chunk.Text, shared) {
				evidence = append(evidence, domain.EvidencePointer{
					ChunkID: chunk.ID,
					Excerpt: excerptFor(chunk.Text, shared),
				})
				break
			}
		}
	}
	return evidence
}
