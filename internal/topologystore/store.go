// Package topologystore defines the registry the graph builder fills while
// assembling a project graph.
//
// # Why Topology Store Exists
//
// Reference resolution needs two lookups the final graph does not offer: by
// qualified name while nodes are still being registered, and by bare name
// across every package. The store holds nodes and their declared dependency
// edges and nothing else; it performs no resolution of its own.
//
// # Lifecycle and Usage
//
// The store is:
//  1. **Created** once per build
//  2. **Populated** by the builder (nodes first, then resolved dependencies)
//  3. **Read** once more when the builder freezes it into a graph.Graph
//  4. **Discarded** after the build
package topologystore

import (
	"context"
	"errors"

	"github.com/vk/gridflow/internal/node"
	"github.com/vk/gridflow/internal/nodeid"
)

// ErrDuplicateNode is returned by AddNode when the qualified name is taken.
var ErrDuplicateNode = errors.New("node already registered")

// Store is the interface for registering nodes and their dependency edges.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use.
type Store interface {
	// AddNode registers a node under its qualified name. Registering a name
	// twice returns an error wrapping ErrDuplicateNode.
	AddNode(ctx context.Context, n *node.Node) error

	// AddDependency records that 'to' depends on 'from'. Both nodes must
	// already be registered. Adding the same edge twice is a no-op.
	AddDependency(ctx context.Context, from, to nodeid.Address) error

	// GetNode retrieves a node by its qualified name.
	GetNode(ctx context.Context, id nodeid.Address) (*node.Node, bool)

	// NodesNamed returns every node whose unqualified name is name, across
	// all packages, in registration order.
	NodesNamed(ctx context.Context, name string) []*node.Node

	// AllNodes returns every node in registration order.
	AllNodes(ctx context.Context) []*node.Node

	// DependenciesOf returns the upstream addresses of id in the order they
	// were added.
	DependenciesOf(ctx context.Context, id nodeid.Address) ([]nodeid.Address, error)
}
