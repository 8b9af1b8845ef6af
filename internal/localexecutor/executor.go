// Package localexecutor provides an in-process executor.Executor that runs
// nothing against a warehouse. It logs what each node would execute and is
// the adapter used when no database is configured.
package localexecutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/node"
)

// Executor is the dry-run adapter.
type Executor struct{}

// New creates a new local executor.
func New() *Executor {
	return &Executor{}
}

var _ executor.Executor = (*Executor)(nil)

// Execute logs the node's body and reports success. Declarations (sources
// and exposures) are skipped.
func (e *Executor) Execute(ctx context.Context, n *node.Node) (executor.Outcome, error) {
	logger := ctxlog.FromContext(ctx).With("node", n.ID.String(), "kind", n.Kind.String())
	if err := ctx.Err(); err != nil {
		return executor.Outcome{}, err
	}
	if !n.Runnable() {
		logger.Debug("Skipping declaration.")
		return executor.Skip(fmt.Sprintf("%s is a declaration", n.Kind)), nil
	}

	body := strings.TrimSpace(n.SQL)
	logger.Debug("Dry run.", "sql", body)
	if body == "" {
		return executor.Success("dry run: empty body"), nil
	}
	return executor.Success(fmt.Sprintf("dry run: %d statement bytes", len(body))), nil
}
