// Package graph provides the immutable project DAG produced by the builder
// and read by the selector and the scheduler.
//
// # Arena Storage
//
// Nodes live in one flat slice in discovery order and are addressed by their
// index in it. Edges are index pairs, stored as two adjacency lists:
//
//	up[i]   = indices i depends on      (upstream)
//	down[i] = indices depending on i    (downstream)
//
// Both lists are sorted and free of duplicates. No node holds a pointer to
// another node, so the structure is trivially shareable and traversals never
// chase ownership cycles.
//
// # Discovery Order
//
// The index of a node is its tie-break key everywhere ordering matters: the
// topological order, the scheduler's ready queue and the order of selection
// results. Two builds of the same definitions produce the same indices.
//
// # Thread-Safety
//
// A Graph is read-only after New returns. Every method is safe for
// concurrent use and none of them mutate the receiver; slices handed out are
// copies.
package graph
