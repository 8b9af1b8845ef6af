package node

import (
	"slices"

	"github.com/vk/gridflow/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// Node is a single vertex in the project graph: one unit of transformation
// work (a model, test, snapshot or seed) or a declaration other units depend
// on (a source or exposure). Nodes are immutable once the graph is built.
type Node struct {
	ID   nodeid.Address
	Name string
	Kind Kind

	// Package is the project or installed dependency the node comes from.
	Package string
	// Path is the logical file path the node was declared in, relative to
	// its package root. Used by path-based selection.
	Path string

	Tags []string
	// Refs are the reference strings exactly as declared, before resolution.
	Refs []string

	// Config is the opaque materialization bag. The core only reads it
	// through the config.<key> selector method.
	Config map[string]cty.Value

	// SQL is the raw body handed to executor adapters.
	SQL         string
	Description string
	Enabled     bool
}

// HasTag reports whether the node carries tag.
func (n *Node) HasTag(tag string) bool {
	return slices.Contains(n.Tags, tag)
}

// Runnable reports whether executing the node does any work. Sources and
// exposures are declarations only.
func (n *Node) Runnable() bool {
	return n.Kind != KindSource && n.Kind != KindExposure
}

// Kind distinguishes the resource types a node can represent.
type Kind int

const (
	KindModel Kind = iota
	KindTest
	KindSnapshot
	KindSeed
	KindSource
	KindExposure
)

var kindNames = [...]string{
	KindModel:    "model",
	KindTest:     "test",
	KindSnapshot: "snapshot",
	KindSeed:     "seed",
	KindSource:   "source",
	KindExposure: "exposure",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// Kinds lists every block type a project file may declare.
func Kinds() []string {
	return kindNames[:]
}
