// Package inmemorytopology provides a thread-safe, in-memory implementation
// of the topologystore.Store interface. It keeps registration order so the
// graph built from it has a stable discovery order.
package inmemorytopology
