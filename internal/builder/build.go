package builder

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vk/gridflow/internal/config"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/graph"
	"github.com/vk/gridflow/internal/inmemorytopology"
	"github.com/vk/gridflow/internal/node"
	"github.com/vk/gridflow/internal/nodeid"
	"github.com/vk/gridflow/internal/topologystore"
)

// Builder assembles a graph.Graph using a topology store as its registry.
type Builder struct {
	store topologystore.Store
}

// New returns a Builder that registers nodes into store. The store must be
// empty and must not be shared with another build.
func New(store topologystore.Store) *Builder {
	return &Builder{store: store}
}

// Build is a convenience wrapper that builds with a fresh in-memory store.
func Build(ctx context.Context, raw []*config.RawNode) (*graph.Graph, error) {
	return New(inmemorytopology.New()).Build(ctx, raw)
}

// Build registers, resolves, links and validates raw into an immutable graph.
func (b *Builder) Build(ctx context.Context, raw []*config.RawNode) (*graph.Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building project graph.", "raw_nodes", len(raw))

	if err := b.register(ctx, raw); err != nil {
		return nil, err
	}
	logger.Debug("Nodes registered.")

	if err := b.link(ctx); err != nil {
		return nil, err
	}
	logger.Debug("References resolved.")

	g, err := b.freeze(ctx)
	if err != nil {
		return nil, err
	}

	if cycle := g.FindCycle(); cycle != nil {
		return nil, cycleError(g.IDs(cycle))
	}

	logger.Debug("Project graph built.", "nodes", g.Len(), "edges", g.EdgeCount())
	return g, nil
}

func (b *Builder) register(ctx context.Context, raw []*config.RawNode) error {
	for _, r := range raw {
		if r == nil {
			continue
		}
		if !nodeid.ValidIdentifier(r.Package) {
			return fmt.Errorf("node %q: invalid package name %q", r.Name, r.Package)
		}
		if !nodeid.ValidIdentifier(r.Name) {
			return fmt.Errorf("node %q in package %q: invalid name", r.Name, r.Package)
		}

		n := &node.Node{
			ID:          nodeid.New(r.Package, r.Name),
			Name:        r.Name,
			Kind:        r.Kind,
			Package:     r.Package,
			Path:        r.Path,
			Tags:        slices.Clone(r.Tags),
			Refs:        slices.Clone(r.DependsOn),
			Config:      r.Config,
			SQL:         r.SQL,
			Description: r.Description,
			Enabled:     r.Enabled,
		}
		if err := b.store.AddNode(ctx, n); err != nil {
			if errors.Is(err, topologystore.ErrDuplicateNode) {
				first, _ := b.store.GetNode(ctx, n.ID)
				return duplicateError(n.ID.String(), first.Path, n.Path)
			}
			return fmt.Errorf("registering %s: %w", n.ID, err)
		}
	}
	return nil
}

func (b *Builder) link(ctx context.Context) error {
	for _, n := range b.store.AllNodes(ctx) {
		for _, ref := range n.Refs {
			upstream, err := b.resolve(ctx, n, ref)
			if err != nil {
				return err
			}
			if err := b.store.AddDependency(ctx, upstream.ID, n.ID); err != nil {
				return fmt.Errorf("linking %s -> %s: %w", upstream.ID, n.ID, err)
			}
		}
	}
	return nil
}

// freeze copies the registry into arena form. Registration order becomes
// discovery order.
func (b *Builder) freeze(ctx context.Context) (*graph.Graph, error) {
	nodes := b.store.AllNodes(ctx)
	index := make(map[nodeid.Address]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	var edges []graph.Edge
	for i, n := range nodes {
		deps, err := b.store.DependenciesOf(ctx, n.ID)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			edges = append(edges, graph.Edge{From: index[d], To: i})
		}
	}
	return graph.New(nodes, edges)
}
