package graph

import (
	"container/heap"
	"slices"
)

// Ancestors returns the nodes reachable from seeds by following upstream
// edges for at most depth hops. A negative depth means unbounded. Seeds are
// not part of the result unless one is reachable from another seed. The
// result is sorted by index.
func (g *Graph) Ancestors(seeds []int, depth int) []int {
	return g.bfs(seeds, depth, g.up)
}

// Descendants is the downstream counterpart of Ancestors.
func (g *Graph) Descendants(seeds []int, depth int) []int {
	return g.bfs(seeds, depth, g.down)
}

// bfs walks level by level so a depth limit cuts exactly at d hops.
func (g *Graph) bfs(seeds []int, depth int, adj [][]int) []int {
	seen := make([]bool, len(g.nodes))
	isSeed := make([]bool, len(g.nodes))
	frontier := make([]int, 0, len(seeds))
	for _, s := range seeds {
		if !isSeed[s] {
			isSeed[s] = true
			frontier = append(frontier, s)
		}
	}

	var out []int
	for hop := 0; len(frontier) > 0 && (depth < 0 || hop < depth); hop++ {
		var next []int
		for _, u := range frontier {
			for _, v := range adj[u] {
				if seen[v] {
					continue
				}
				seen[v] = true
				out = append(out, v)
				next = append(next, v)
			}
		}
		frontier = next
	}
	slices.Sort(out)
	return out
}

// TopoOrder returns a topological order of all nodes, breaking ties by the
// lower index. On a cyclic graph the nodes on or behind a cycle are missing.
func (g *Graph) TopoOrder() []int {
	indeg := make([]int, len(g.nodes))
	ready := &intMinHeap{}
	for i := range g.nodes {
		indeg[i] = len(g.up[i])
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]int, 0, len(g.nodes))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		out = append(out, n)
		for _, m := range g.down[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	return out
}

// FindCycle runs a three-colour DFS in index order and returns the first
// cycle found as a closed path [v, ..., v] following edge direction, or nil
// when the graph is acyclic.
func (g *Graph) FindCycle() []int {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(g.nodes))
	parent := make([]int, len(g.nodes))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.down[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back-edge u -> v: walk parents from u back to v.
				cycle = append(cycle, v)
				for cur := u; cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := range g.nodes {
		if color[i] == white && dfs(i) {
			break
		}
	}
	if cycle == nil {
		return nil
	}
	slices.Reverse(cycle)
	return cycle
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
