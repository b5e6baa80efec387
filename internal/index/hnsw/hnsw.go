// Package hnsw provides approximate nearest-neighbour search over chunk
// embeddings using a hierarchical navigable small world graph. Queries
// run in logarithmic expected time. The graph is built once per book at
// ingest and is read-only afterwards.
//
// Construction is deterministic: level assignment draws from a seeded
// source, so identical input in identical order yields an identical
// graph.
package hnsw

import (
	"container/heap"
	"fmt"
	"math"
	"math/rand"

	"github.com/splap/bookqa/internal/core/domain"
)

// Graph parameters. M is the per-layer neighbour bound, efConstruction
// and efSearch the candidate list sizes at build and query time.
const (
	defaultM              = 16
	defaultEFConstruction = 200
	defaultEFSearch       = 64

	// levelSeed makes level sampling reproducible across builds.
	levelSeed = 0x5eed
)

// node is one vector in the graph.
type node struct {
	chunkID   string
	chapterID string
	vec       []float32
	// neighbors[l] lists neighbour node indexes at layer l.
	neighbors [][]int
}

// Index is an HNSW graph over one book's chunk embeddings.
type Index struct {
	dim       int
	m         int
	efBuild   int
	efSearch  int
	levelMult float64

	rng    *rand.Rand
	nodes  []node
	entry  int // index of the entry node, -1 when empty
	maxLvl int
}

// New creates an empty index for vectors of the given dimensionality.
func New(dim int) *Index {
	return &Index{
		dim:       dim,
		m:         defaultM,
		efBuild:   defaultEFConstruction,
		efSearch:  defaultEFSearch,
		levelMult: 1 / math.Log(float64(defaultM)),
		rng:       rand.New(rand.NewSource(levelSeed)),
		entry:     -1,
	}
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	return len(idx.nodes)
}

// Dimensions returns the vector dimensionality.
func (idx *Index) Dimensions() int {
	return idx.dim
}

// Add inserts a chunk's embedding. Vectors are normalised on insert so
// that dot product equals cosine similarity. Insertion order matters
// for determinism; the ingest pipeline inserts in chunk ID order.
func (idx *Index) Add(chunkID, chapterID string, vec []float32) error {
	if len(vec) != idx.dim {
		return fmt.Errorf("%w: vector has %d dimensions, index expects %d",
			domain.ErrInvalidInput, len(vec), idx.dim)
	}

	normalised := normalize(vec)
	level := idx.randomLevel()

	n := node{
		chunkID:   chunkID,
		chapterID: chapterID,
		vec:       normalised,
		neighbors: make([][]int, level+1),
	}
	idx.nodes = append(idx.nodes, n)
	newIdx := len(idx.nodes) - 1

	if idx.entry < 0 {
		idx.entry = newIdx
		idx.maxLvl = level
		return nil
	}

	ep := idx.entry
	// Descend through layers above the new node's level.
	for l := idx.maxLvl; l > level; l-- {
		ep = idx.greedyClosest(normalised, ep, l)
	}

	// Connect at each layer from min(level, maxLvl) down to 0.
	top := level
	if top > idx.maxLvl {
		top = idx.maxLvl
	}
	for l := top; l >= 0; l-- {
		candidates := idx.searchLayer(normalised, ep, idx.efBuild, l)
		neighbours := idx.selectClosest(candidates, idx.m)
		idx.nodes[newIdx].neighbors[l] = neighbours

		maxConn := idx.m
		if l == 0 {
			maxConn = idx.m * 2
		}
		for _, nb := range neighbours {
			idx.nodes[nb].neighbors[l] = append(idx.nodes[nb].neighbors[l], newIdx)
			if len(idx.nodes[nb].neighbors[l]) > maxConn {
				idx.pruneNeighbors(nb, l, maxConn)
			}
		}
		if len(candidates) > 0 {
			ep = candidates[0].idx
		}
	}

	if level > idx.maxLvl {
		idx.maxLvl = level
		idx.entry = newIdx
	}
	return nil
}

// Search returns the k nearest chunks to the query vector by cosine
// similarity, restricted to scope when given.
func (idx *Index) Search(query []float32, scope domain.Scope, k int) ([]domain.SearchHit, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			domain.ErrInvalidInput, len(query), idx.dim)
	}
	if idx.entry < 0 || k <= 0 {
		return []domain.SearchHit{}, nil
	}

	normalised := normalize(query)

	ep := idx.entry
	for l := idx.maxLvl; l > 0; l-- {
		ep = idx.greedyClosest(normalised, ep, l)
	}

	// Scope filtering happens after traversal, so widen the candidate
	// list to survive it.
	ef := idx.efSearch
	if ef < k*4 {
		ef = k * 4
	}
	candidates := idx.searchLayer(normalised, ep, ef, 0)

	hits := make([]domain.SearchHit, 0, k)
	for _, c := range candidates {
		n := idx.nodes[c.idx]
		if !scope.Contains(n.chapterID) {
			continue
		}
		hits = append(hits, domain.SearchHit{
			ChunkID:   n.chunkID,
			ChapterID: n.chapterID,
			Score:     1 - c.dist, // cosine similarity
		})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

// randomLevel samples a node level from the standard HNSW distribution.
func (idx *Index) randomLevel() int {
	return int(-math.Log(idx.rng.Float64()) * idx.levelMult)
}

// greedyClosest walks layer l towards the query until no neighbour is
// closer than the current node.
func (idx *Index) greedyClosest(query []float32, ep, l int) int {
	cur := ep
	curDist := cosineDist(query, idx.nodes[cur].vec)
	for {
		improved := false
		for _, nb := range idx.nodes[cur].neighbors[l] {
			if d := cosineDist(query, idx.nodes[nb].vec); d < curDist {
				cur, curDist = nb, d
				improved = true
			}
		}
		if !improved {
			return cur
		}
	}
}

// scored pairs a node index with its distance to the query.
type scored struct {
	idx  int
	dist float64
}

// searchLayer returns up to ef candidates on layer l, sorted by
// ascending distance. Ties break by node index for determinism.
func (idx *Index) searchLayer(query []float32, ep, ef, l int) []scored {
	visited := make(map[int]bool, ef*2)
	visited[ep] = true

	start := scored{idx: ep, dist: cosineDist(query, idx.nodes[ep].vec)}
	candidates := &minHeap{start}
	results := &maxHeap{start}

	for candidates.Len() > 0 {
		c := heap.Pop(candidates).(scored)
		worst := (*results)[0]
		if c.dist > worst.dist && results.Len() >= ef {
			break
		}
		for _, nb := range idx.nodes[c.idx].neighbors[l] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			d := cosineDist(query, idx.nodes[nb].vec)
			if results.Len() < ef || d < (*results)[0].dist {
				heap.Push(candidates, scored{idx: nb, dist: d})
				heap.Push(results, scored{idx: nb, dist: d})
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	out := make([]scored, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(scored)
	}
	return out
}

// selectClosest keeps the m closest candidate node indexes.
func (idx *Index) selectClosest(candidates []scored, m int) []int {
	if len(candidates) > m {
		candidates = candidates[:m]
	}
	out := make([]int, len(candidates))
	for i, c := range candidates {
		out[i] = c.idx
	}
	return out
}

// pruneNeighbors trims a node's neighbour list to the maxConn closest.
func (idx *Index) pruneNeighbors(n, l, maxConn int) {
	nbs := idx.nodes[n].neighbors[l]
	ranked := make([]scored, len(nbs))
	for i, nb := range nbs {
		ranked[i] = scored{idx: nb, dist: cosineDist(idx.nodes[n].vec, idx.nodes[nb].vec)}
	}
	sortScored(ranked)
	kept := make([]int, 0, maxConn)
	for i := 0; i < maxConn && i < len(ranked); i++ {
		kept = append(kept, ranked[i].idx)
	}
	idx.nodes[n].neighbors[l] = kept
}

// sortScored orders by ascending distance, node index on ties.
func sortScored(s []scored) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && less(s[j], s[j-1]); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func less(a, b scored) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.idx < b.idx
}

// minHeap pops the closest candidate first.
type minHeap []scored

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return less(h[i], h[j]) }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)         { *h = append(*h, x.(scored)) }
func (h *minHeap) Pop() any           { old := *h; n := len(old); x := old[n-1]; *h = old[:n-1]; return x }

// maxHeap pops the farthest result first, for bounding to ef entries.
type maxHeap []scored

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return less(h[j], h[i]) }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x any)         { *h = append(*h, x.(scored)) }
func (h *maxHeap) Pop() any           { old := *h; n := len(old); x := old[n-1]; *h = old[:n-1]; return x }

// normalize returns a unit-length copy of the vector.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	if norm == 0 {
		copy(out, vec)
		return out
	}
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

// cosineDist is 1 minus the dot product of unit vectors.
func cosineDist(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return 1 - dot
}
