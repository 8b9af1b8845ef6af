// Package executor defines the adapter boundary between the scheduler and
// whatever actually runs a node (a warehouse connection, a dry-run logger,
// a test double).
package executor

import (
	"context"

	"github.com/vk/gridflow/internal/node"
)

// Outcome is what an adapter reports for a node that did not fail.
type Outcome struct {
	// Skipped means the adapter declined to run the node. It is not a
	// failure and dependents still run.
	Skipped bool
	Message string
}

// Executor runs a single node. A non-nil error is a failed attempt; the
// scheduler decides whether to retry. Implementations must honor ctx.
type Executor interface {
	Execute(ctx context.Context, n *node.Node) (Outcome, error)
}

// Func adapts an ordinary function to the Executor interface.
type Func func(ctx context.Context, n *node.Node) (Outcome, error)

// Execute calls f(ctx, n).
func (f Func) Execute(ctx context.Context, n *node.Node) (Outcome, error) {
	return f(ctx, n)
}

// Success reports a completed node.
func Success(msg string) Outcome { return Outcome{Message: msg} }

// Skip reports a node the adapter declined to run.
func Skip(msg string) Outcome { return Outcome{Skipped: true, Message: msg} }
