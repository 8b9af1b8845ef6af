package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/gridflow/internal/builder"
	"github.com/vk/gridflow/internal/config"
	"github.com/vk/gridflow/internal/graph"
	"github.com/vk/gridflow/internal/node"
	"github.com/vk/gridflow/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// DefaultPackage is the package fixtures land in unless InPackage is used.
const DefaultPackage = "proj"

// NodeOption customizes a fixture node.
type NodeOption func(*config.RawNode)

// Model returns an enabled model fixture in DefaultPackage, declared in
// models/<name>.hcl.
func Model(name string, opts ...NodeOption) *config.RawNode {
	n := &config.RawNode{
		Kind:    node.KindModel,
		Name:    name,
		Package: DefaultPackage,
		Path:    "models/" + name + ".hcl",
		Enabled: true,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// DependsOn appends references to the node.
func DependsOn(refs ...string) NodeOption {
	return func(n *config.RawNode) { n.DependsOn = append(n.DependsOn, refs...) }
}

// Tags appends tags to the node.
func Tags(tags ...string) NodeOption {
	return func(n *config.RawNode) { n.Tags = append(n.Tags, tags...) }
}

// InPackage moves the node to pkg.
func InPackage(pkg string) NodeOption {
	return func(n *config.RawNode) { n.Package = pkg }
}

// Path overrides the declaring file.
func Path(p string) NodeOption {
	return func(n *config.RawNode) { n.Path = p }
}

// Kind overrides the resource type.
func Kind(k node.Kind) NodeOption {
	return func(n *config.RawNode) { n.Kind = k }
}

// Disabled marks the node as disabled.
func Disabled() NodeOption {
	return func(n *config.RawNode) { n.Enabled = false }
}

// Config sets a string value in the config bag.
func Config(key, value string) NodeOption {
	return func(n *config.RawNode) {
		if n.Config == nil {
			n.Config = make(map[string]cty.Value)
		}
		n.Config[key] = cty.StringVal(value)
	}
}

// BuildGraph builds raws into a graph and fails the test on error.
func BuildGraph(t *testing.T, raws ...*config.RawNode) *graph.Graph {
	t.Helper()
	g, err := builder.Build(context.Background(), raws)
	require.NoError(t, err)
	return g
}

// Index returns the arena index of id ("pkg.name", or a bare name in
// DefaultPackage).
func Index(t *testing.T, g *graph.Graph, id string) int {
	t.Helper()
	addr, err := nodeid.Parse(id)
	if err != nil {
		addr = nodeid.New(DefaultPackage, id)
	}
	i, ok := g.Lookup(addr)
	require.True(t, ok, "node %s not in graph", addr)
	return i
}

// Indices maps ids through Index.
func Indices(t *testing.T, g *graph.Graph, ids ...string) []int {
	t.Helper()
	out := make([]int, len(ids))
	for k, id := range ids {
		out[k] = Index(t, g, id)
	}
	return out
}
