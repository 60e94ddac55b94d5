package vectorindex

import (
	"container/heap"
	"math"
	"math/rand"
	"sort"
)

type hnswNode struct {
	id     string
	vector []float32
	norm   float64
	// neighbors[level] holds the node indexes linked at that level.
	neighbors [][]int
}

type hnswGraph struct {
	params   Params
	nodes    []*hnswNode
	byID     map[string]int
	entry    int
	maxLevel int
	levelMul float64
	rng      *rand.Rand
}

func newGraph(params Params) *hnswGraph {
	return &hnswGraph{
		params:   params,
		byID:     make(map[string]int),
		entry:    -1,
		maxLevel: -1,
		levelMul: 1 / math.Log(float64(params.M)),
		// Fixed seed keeps level assignment, and therefore results,
		// reproducible across identical rebuilds.
		rng: rand.New(rand.NewSource(1)),
	}
}

// distance is cosine distance with precomputed norms. Zero-norm vectors are
// maximally distant from everything.
func (g *hnswGraph) distance(a []float32, aNorm float64, n *hnswNode) float64 {
	if aNorm == 0 || n.norm == 0 {
		return 2
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(n.vector[i])
	}
	return 1 - dot/(aNorm*n.norm)
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func (g *hnswGraph) randomLevel() int {
	return int(math.Floor(-math.Log(g.rng.Float64()) * g.levelMul))
}

// maxNeighbors is 2M at the ground level and M above it, following the
// original HNSW construction.
func (g *hnswGraph) maxNeighbors(level int) int {
	if level == 0 {
		return g.params.M * 2
	}
	return g.params.M
}

func (g *hnswGraph) insert(id string, vector []float32) {
	if existing, ok := g.byID[id]; ok {
		// Replace in place; links stay and remain approximately valid.
		copied := append([]float32(nil), vector...)
		g.nodes[existing].vector = copied
		g.nodes[existing].norm = vectorNorm(copied)
		return
	}

	level := g.randomLevel()
	node := &hnswNode{
		id:        id,
		vector:    append([]float32(nil), vector...),
		norm:      vectorNorm(vector),
		neighbors: make([][]int, level+1),
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, node)
	g.byID[id] = idx

	if g.entry < 0 {
		g.entry = idx
		g.maxLevel = level
		return
	}

	curr := g.entry
	// Greedy descent through the levels above the new node's top level.
	for l := g.maxLevel; l > level; l-- {
		curr = g.greedyClosest(vector, node.norm, curr, l)
	}

	// At each level the node lives on, gather candidates and link.
	entryPoints := []int{curr}
	for l := min(level, g.maxLevel); l >= 0; l-- {
		candidates := g.searchLayer(vector, node.norm, entryPoints, g.params.EfConstruction, l)
		selected := g.selectClosest(candidates, g.params.M)
		node.neighbors[l] = append([]int(nil), selected...)
		for _, neighbor := range selected {
			g.link(neighbor, idx, l)
		}
		entryPoints = selected
		if len(entryPoints) == 0 {
			entryPoints = []int{curr}
		}
	}

	if level > g.maxLevel {
		g.maxLevel = level
		g.entry = idx
	}
}

// link adds target to node's neighbor list at level, pruning to the level's
// connectivity cap by keeping the closest links.
func (g *hnswGraph) link(nodeIdx, target, level int) {
	node := g.nodes[nodeIdx]
	if level >= len(node.neighbors) {
		return
	}
	node.neighbors[level] = append(node.neighbors[level], target)
	limit := g.maxNeighbors(level)
	if len(node.neighbors[level]) <= limit {
		return
	}
	sort.Slice(node.neighbors[level], func(a, b int) bool {
		da := g.distance(node.vector, node.norm, g.nodes[node.neighbors[level][a]])
		db := g.distance(node.vector, node.norm, g.nodes[node.neighbors[level][b]])
		return da < db
	})
	node.neighbors[level] = node.neighbors[level][:limit]
}

// greedyClosest walks level l from start to the locally closest node.
func (g *hnswGraph) greedyClosest(vector []float32, norm float64, start, level int) int {
	curr := start
	currDist := g.distance(vector, norm, g.nodes[curr])
	for {
		improved := false
		for _, neighbor := range g.neighborsAt(curr, level) {
			if d := g.distance(vector, norm, g.nodes[neighbor]); d < currDist {
				curr = neighbor
				currDist = d
				improved = true
			}
		}
		if !improved {
			return curr
		}
	}
}

func (g *hnswGraph) neighborsAt(idx, level int) []int {
	node := g.nodes[idx]
	if level >= len(node.neighbors) {
		return nil
	}
	return node.neighbors[level]
}

// searchLayer is the ef-bounded best-first search over one level, returning
// up to ef candidate node indexes ordered by ascending distance.
func (g *hnswGraph) searchLayer(vector []float32, norm float64, entryPoints []int, ef, level int) []int {
	visited := make(map[int]bool, ef*4)
	candidates := &distHeap{ascending: true}
	results := &distHeap{ascending: false}
	heap.Init(candidates)
	heap.Init(results)

	for _, ep := range entryPoints {
		if visited[ep] {
			continue
		}
		visited[ep] = true
		d := g.distance(vector, norm, g.nodes[ep])
		heap.Push(candidates, distEntry{idx: ep, dist: d})
		heap.Push(results, distEntry{idx: ep, dist: d})
	}

	for candidates.Len() > 0 {
		closest := heap.Pop(candidates).(distEntry)
		if results.Len() >= ef && closest.dist > results.peek().dist {
			break
		}
		for _, neighbor := range g.neighborsAt(closest.idx, level) {
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			d := g.distance(vector, norm, g.nodes[neighbor])
			if results.Len() < ef || d < results.peek().dist {
				heap.Push(candidates, distEntry{idx: neighbor, dist: d})
				heap.Push(results, distEntry{idx: neighbor, dist: d})
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	out := make([]distEntry, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(distEntry)
	}
	indexes := make([]int, len(out))
	for i, entry := range out {
		indexes[i] = entry.idx
	}
	return indexes
}

func (g *hnswGraph) selectClosest(candidates []int, m int) []int {
	if len(candidates) <= m {
		return candidates
	}
	return candidates[:m]
}

// search descends from the entry point and runs the ground-level search.
func (g *hnswGraph) search(vector []float32, k, ef int) []Candidate {
	norm := vectorNorm(vector)
	curr := g.entry
	for l := g.maxLevel; l > 0; l-- {
		curr = g.greedyClosest(vector, norm, curr, l)
	}

	if ef < k {
		ef = k
	}
	found := g.searchLayer(vector, norm, []int{curr}, ef, 0)
	if len(found) > k {
		found = found[:k]
	}
	out := make([]Candidate, 0, len(found))
	for _, idx := range found {
		out = append(out, Candidate{
			ID:       g.nodes[idx].id,
			Distance: g.distance(vector, norm, g.nodes[idx]),
		})
	}
	return out
}

type distEntry struct {
	idx  int
	dist float64
}

// distHeap is a min-heap when ascending, otherwise a max-heap.
type distHeap struct {
	entries   []distEntry
	ascending bool
}

func (h *distHeap) Len() int { return len(h.entries) }

func (h *distHeap) Less(i, j int) bool {
	if h.ascending {
		return h.entries[i].dist < h.entries[j].dist
	}
	return h.entries[i].dist > h.entries[j].dist
}

func (h *distHeap) Swap(i, j int) { h.entries[i], h.entries[j] = h.entries[j], h.entries[i] }

func (h *distHeap) Push(x any) { h.entries = append(h.entries, x.(distEntry)) }

func (h *distHeap) Pop() any {
	last := len(h.entries) - 1
	entry := h.entries[last]
	h.entries = h.entries[:last]
	return entry
}

func (h *distHeap) peek() distEntry { return h.entries[0] }
