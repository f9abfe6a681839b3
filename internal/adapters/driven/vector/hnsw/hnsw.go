// Package hnsw provides an in-memory HNSW (Hierarchical Navigable Small World)
// graph for approximate nearest neighbour search over record embeddings.
//
// Reference: "Efficient and robust approximate nearest neighbor search using
// Hierarchical Navigable Small World graphs" by Malkov & Yashunin (2016)
package hnsw

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// maxLevel bounds the layer assigned to a node.
const maxLevel = 16

// ErrDimensionMismatch indicates a vector of the wrong size.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Config contains the graph parameters.
type Config struct {
	// M is the maximum number of connections per node per layer.
	M int

	// MMax is the maximum number of connections at layer 0, usually 2*M.
	MMax int

	// EfConstruction is the beam width during construction.
	EfConstruction int

	// EfSearch is the beam width during search. Raised to k when smaller.
	EfSearch int

	// ML is the level generation factor, typically 1/ln(M).
	ML float64

	// Metric selects cosine or L2 similarity.
	Metric domain.VectorMetric

	// Dimensions is the vector size. Zero adopts the first vector's size.
	Dimensions int

	// Seed makes level assignment reproducible.
	Seed int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(metric domain.VectorMetric) Config {
	m := 16
	return Config{
		M:              m,
		MMax:           m * 2,
		EfConstruction: 200,
		EfSearch:       100,
		ML:             1.0 / math.Log(float64(m)),
		Metric:         metric,
		Seed:           42,
	}
}

// node is one vector in the graph. neighbors[layer] lists neighbour ids.
type node struct {
	id        int
	vector    []float32
	neighbors [][]int
}

// Index is an HNSW graph keyed by record position.
// Add is serialised; searches run concurrently.
type Index struct {
	mu         sync.RWMutex
	nodes      map[int]*node
	entryPoint int
	topLevel   int
	config     Config
	rng        *rand.Rand
	closed     bool
}

// NewIndex creates an empty graph.
func NewIndex(cfg Config) *Index {
	if cfg.M <= 0 {
		cfg = DefaultConfig(cfg.Metric)
	}
	if !cfg.Metric.IsValid() {
		cfg.Metric = domain.MetricCosine
	}
	return &Index{
		nodes:      make(map[int]*node),
		entryPoint: -1,
		topLevel:   -1,
		config:     cfg,
		rng:        rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // level assignment, not security
	}
}

// Add inserts a vector. Vectors are stored unit-normalised so that L2
// distances fall in [0, 2].
func (x *Index) Add(ctx context.Context, id int, embedding []float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return domain.ErrIndexClosed
	}
	if _, exists := x.nodes[id]; exists {
		return fmt.Errorf("vector %d already indexed", id)
	}
	if len(embedding) == 0 {
		return fmt.Errorf("vector %d: %w: empty", id, ErrDimensionMismatch)
	}
	if x.config.Dimensions == 0 {
		x.config.Dimensions = len(embedding)
	}
	if len(embedding) != x.config.Dimensions {
		return fmt.Errorf("vector %d: %w: got %d, want %d",
			id, ErrDimensionMismatch, len(embedding), x.config.Dimensions)
	}

	vec := normalize(embedding)
	level := x.randomLevel()
	n := &node{id: id, vector: vec, neighbors: make([][]int, level+1)}
	x.nodes[id] = n

	if x.entryPoint < 0 {
		x.entryPoint = id
		x.topLevel = level
		return nil
	}

	entry := x.greedy(vec, x.entryPoint, x.topLevel, level)

	for l := min(level, x.topLevel); l >= 0; l-- {
		candidates := x.searchLayer(vec, entry, x.config.EfConstruction, l)

		limit := x.config.M
		if l == 0 {
			limit = x.config.MMax
		}
		if len(candidates) > limit {
			candidates = candidates[:limit]
		}

		n.neighbors[l] = make([]int, 0, len(candidates))
		for _, c := range candidates {
			n.neighbors[l] = append(n.neighbors[l], c.id)

			// Add reverse connection
			peer := x.nodes[c.id]
			if l < len(peer.neighbors) {
				peer.neighbors[l] = append(peer.neighbors[l], id)
				if len(peer.neighbors[l]) > limit {
					peer.neighbors[l] = x.prune(peer.vector, peer.neighbors[l], limit)
				}
			}
		}
		if len(candidates) > 0 {
			entry = candidates[0].id
		}
	}

	if level > x.topLevel {
		x.entryPoint = id
		x.topLevel = level
	}
	return nil
}

// Search returns up to k neighbours of query in descending similarity,
// ties broken by id.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.closed {
		return nil, domain.ErrIndexClosed
	}
	hits := []driven.VectorHit{}
	if k <= 0 || x.entryPoint < 0 {
		return hits, nil
	}
	if len(query) != x.config.Dimensions {
		return nil, fmt.Errorf("query: %w: got %d, want %d", ErrDimensionMismatch, len(query), x.config.Dimensions)
	}

	vec := normalize(query)
	entry := x.greedy(vec, x.entryPoint, x.topLevel, 0)
	candidates := x.searchLayer(vec, entry, max(x.config.EfSearch, k), 0)

	for _, c := range candidates {
		hits = append(hits, driven.VectorHit{ID: c.id, Similarity: x.similarity(c.dist)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Vector returns the stored (normalised) vector for id.
func (x *Index) Vector(id int) ([]float32, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	n, ok := x.nodes[id]
	if !ok {
		return nil, false
	}
	return n.vector, true
}

// Len returns the number of vectors in the index.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.nodes)
}

// Dimensions returns the vector size, zero before the first Add.
func (x *Index) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.config.Dimensions
}

// Close drops the graph.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true
	x.nodes = nil
	return nil
}

// greedy descends from layer top to just above layer floor, moving to the
// closest neighbour at each layer.
func (x *Index) greedy(query []float32, entry, top, floor int) int {
	current := x.nodes[entry]
	currentDist := x.distance(query, current.vector)
	for l := top; l > floor; l-- {
		changed := true
		for changed {
			changed = false
			if l >= len(current.neighbors) {
				break
			}
			for _, nid := range current.neighbors[l] {
				peer := x.nodes[nid]
				if d := x.distance(query, peer.vector); d < currentDist {
					current, currentDist = peer, d
					changed = true
				}
			}
		}
	}
	return current.id
}

// searchLayer performs beam search at one layer and returns candidates
// closest first.
func (x *Index) searchLayer(query []float32, entry, ef, layer int) []candidate {
	visited := map[int]struct{}{entry: {}}

	start := candidate{id: entry, dist: x.distance(query, x.nodes[entry].vector)}
	frontier := &minHeap{start}
	results := &maxHeap{start}

	for frontier.Len() > 0 {
		closest := heap.Pop(frontier).(candidate)
		if closest.dist > (*results)[0].dist {
			break // All remaining candidates are further than our worst result
		}

		n := x.nodes[closest.id]
		if layer >= len(n.neighbors) {
			continue
		}
		for _, nid := range n.neighbors[layer] {
			if _, seen := visited[nid]; seen {
				continue
			}
			visited[nid] = struct{}{}

			c := candidate{id: nid, dist: x.distance(query, x.nodes[nid].vector)}
			if results.Len() < ef {
				heap.Push(frontier, c)
				heap.Push(results, c)
			} else if c.closer((*results)[0]) {
				heap.Push(frontier, c)
				heap.Pop(results)
				heap.Push(results, c)
			}
		}
	}

	out := make([]candidate, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(candidate)
	}
	return out
}

// prune keeps the limit closest neighbours of a node.
func (x *Index) prune(vec []float32, neighbors []int, limit int) []int {
	cands := make([]candidate, 0, len(neighbors))
	for _, nid := range neighbors {
		cands = append(cands, candidate{id: nid, dist: x.distance(vec, x.nodes[nid].vector)})
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].closer(cands[j]) })

	out := make([]int, 0, limit)
	for _, c := range cands[:limit] {
		out = append(out, c.id)
	}
	return out
}

// randomLevel draws a level with P(level = l) = (1/M)^l * (1 - 1/M).
func (x *Index) randomLevel() int {
	level := 0
	for x.rng.Float64() < x.config.ML && level < maxLevel {
		level++
	}
	return level
}

// distance is 1 - cos for the cosine metric and the Euclidean distance for
// L2. Both operands are unit vectors.
func (x *Index) distance(a, b []float32) float64 {
	if x.config.Metric == domain.MetricL2 {
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return math.Sqrt(sum)
	}
	return 1 - dot(a, b)
}

// similarity converts a distance back to the reported score.
func (x *Index) similarity(dist float64) float64 {
	if x.config.Metric == domain.MetricL2 {
		return 1 - dist/2
	}
	return 1 - dist
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// normalize returns a unit-length copy of v. A zero vector is copied as is.
func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	norm := math.Sqrt(dot(v, v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

// candidate pairs a node id with its distance to the query.
type candidate struct {
	id   int
	dist float64
}

// closer orders by distance, then id.
func (c candidate) closer(o candidate) bool {
	if c.dist != o.dist {
		return c.dist < o.dist
	}
	return c.id < o.id
}

// minHeap pops the closest candidate first.
type minHeap []candidate

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i].closer(h[j]) }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(v any)        { *h = append(*h, v.(candidate)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// maxHeap pops the furthest candidate first.
type maxHeap []candidate

func (h maxHeap) Len() int           { return len(h) }
func (h maxHeap) Less(i, j int) bool { return h[j].closer(h[i]) }
func (h maxHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(v any)        { *h = append(*h, v.(candidate)) }
func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}
