package builder

import (
	"context"
	"strings"

	"github.com/vk/gridflow/internal/node"
	"github.com/vk/gridflow/internal/nodeid"
)

// resolve maps one declared reference of n to a registered node.
func (b *Builder) resolve(ctx context.Context, n *node.Node, ref string) (*node.Node, error) {
	id := n.ID.String()
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, unresolvedError(id, ref, "empty reference")
	}

	if strings.Contains(ref, ".") {
		addr, err := nodeid.Parse(ref)
		if err != nil {
			return nil, unresolvedError(id, ref, "%v", err)
		}
		if target, ok := b.store.GetNode(ctx, addr); ok {
			return target, nil
		}
		return nil, unresolvedError(id, ref, "no node %s", addr)
	}

	if target, ok := b.store.GetNode(ctx, nodeid.New(n.Package, ref)); ok {
		return target, nil
	}

	candidates := b.store.NodesNamed(ctx, ref)
	switch len(candidates) {
	case 0:
		return nil, unresolvedError(id, ref, "no node named %s in any package", ref)
	case 1:
		return candidates[0], nil
	default:
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.ID.String()
		}
		return nil, unresolvedError(id, ref, "ambiguous: matches %s", strings.Join(names, ", "))
	}
}
