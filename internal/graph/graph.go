package graph

import (
	"fmt"
	"slices"

	"github.com/vk/gridflow/internal/node"
	"github.com/vk/gridflow/internal/nodeid"
)

// Edge is a dependency from upstream node From to downstream node To, both
// given as indices into the node slice.
type Edge struct {
	From, To int
}

// Graph is an immutable DAG over nodes in discovery order.
type Graph struct {
	nodes []*node.Node
	index map[nodeid.Address]int
	up    [][]int
	down  [][]int
	edges int
}

// New freezes nodes and edges into a Graph. Duplicate edges collapse.
// Acyclicity is not checked here; see FindCycle.
func New(nodes []*node.Node, edges []Edge) (*Graph, error) {
	g := &Graph{
		nodes: slices.Clone(nodes),
		index: make(map[nodeid.Address]int, len(nodes)),
		up:    make([][]int, len(nodes)),
		down:  make([][]int, len(nodes)),
	}
	for i, n := range g.nodes {
		if _, dup := g.index[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node %s", n.ID)
		}
		g.index[n.ID] = i
	}
	for _, e := range edges {
		if e.From < 0 || e.From >= len(nodes) || e.To < 0 || e.To >= len(nodes) {
			return nil, fmt.Errorf("edge %d -> %d out of range", e.From, e.To)
		}
		g.up[e.To] = append(g.up[e.To], e.From)
		g.down[e.From] = append(g.down[e.From], e.To)
	}
	for i := range g.nodes {
		g.up[i] = sortUnique(g.up[i])
		g.down[i] = sortUnique(g.down[i])
		g.edges += len(g.up[i])
	}
	return g, nil
}

func sortUnique(s []int) []int {
	slices.Sort(s)
	return slices.Compact(s)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Node returns the node at index i.
func (g *Graph) Node(i int) *node.Node { return g.nodes[i] }

// Nodes returns every node in discovery order.
func (g *Graph) Nodes() []*node.Node { return slices.Clone(g.nodes) }

// Lookup returns the index of the node with the given qualified name.
func (g *Graph) Lookup(id nodeid.Address) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Upstream returns the direct dependencies of node i.
func (g *Graph) Upstream(i int) []int { return slices.Clone(g.up[i]) }

// Downstream returns the direct dependents of node i.
func (g *Graph) Downstream(i int) []int { return slices.Clone(g.down[i]) }

// IDs maps indices to qualified names.
func (g *Graph) IDs(indices []int) []string {
	out := make([]string, len(indices))
	for k, i := range indices {
		out[k] = g.nodes[i].ID.String()
	}
	return out
}
