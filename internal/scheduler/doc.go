// Package scheduler executes a selected subset of a graph.Graph in
// dependency order with bounded concurrency and per-node retry.
//
// One coordinator goroutine owns every node's run state. It keeps a ready
// queue ordered by discovery index and hands nodes to a fixed pool of
// workers; workers call the executor.Executor, retry failed attempts, and
// report back on a single update channel. Observers are invoked from the
// coordinator only, so they see transitions in a consistent order and need
// no locking of their own.
//
// A node runs once every selected upstream node has succeeded or been
// skipped by its adapter. A failed node skips its selected downstream nodes
// transitively, without calling the executor for them. Cancelling the run
// context stops dispatch; running nodes are awaited and everything left is
// reported as cancelled.
//
// The scheduler does not log. Attach an Observer for progress output.
package scheduler
