package inmemorytopology

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vk/gridflow/internal/node"
	"github.com/vk/gridflow/internal/nodeid"
	"github.com/vk/gridflow/internal/topologystore"
)

// Store implements topologystore.Store using maps plus an ordered slice,
// guarded by a RWMutex.
type Store struct {
	mu     sync.RWMutex
	order  []*node.Node
	nodes  map[nodeid.Address]*node.Node
	byName map[string][]*node.Node
	deps   map[nodeid.Address][]nodeid.Address
}

// New creates a new, empty in-memory topology store.
func New() *Store {
	return &Store{
		nodes:  make(map[nodeid.Address]*node.Node),
		byName: make(map[string][]*node.Node),
		deps:   make(map[nodeid.Address][]nodeid.Address),
	}
}

var _ topologystore.Store = (*Store)(nil)

// AddNode adds a new node to the store.
func (s *Store) AddNode(ctx context.Context, n *node.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", topologystore.ErrDuplicateNode, n.ID)
	}
	s.nodes[n.ID] = n
	s.order = append(s.order, n)
	s.byName[n.Name] = append(s.byName[n.Name], n)
	return nil
}

// AddDependency creates a dependency link from one node to another.
func (s *Store) AddDependency(ctx context.Context, from, to nodeid.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[from]; !exists {
		return fmt.Errorf("dependency source node '%s' not found in topology", from)
	}
	if _, exists := s.nodes[to]; !exists {
		return fmt.Errorf("dependency target node '%s' not found in topology", to)
	}
	if slices.Contains(s.deps[to], from) {
		return nil
	}
	s.deps[to] = append(s.deps[to], from)
	return nil
}

// GetNode retrieves a single node by its address.
func (s *Store) GetNode(ctx context.Context, id nodeid.Address) (*node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	return n, ok
}

// NodesNamed returns all nodes registered under an unqualified name.
func (s *Store) NodesNamed(ctx context.Context, name string) []*node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.byName[name])
}

// AllNodes returns a snapshot of all nodes in registration order.
func (s *Store) AllNodes(ctx context.Context) []*node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.order)
}

// DependenciesOf returns the addresses of all nodes that id depends on.
func (s *Store) DependenciesOf(ctx context.Context, id nodeid.Address) ([]nodeid.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.nodes[id]; !exists {
		return nil, fmt.Errorf("node '%s' not found in topology", id)
	}
	return slices.Clone(s.deps[id]), nil
}
