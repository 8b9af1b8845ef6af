package app

import (
	"context"
	"fmt"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/localexecutor"
	"github.com/vk/gridflow/internal/metrics"
	"github.com/vk/gridflow/internal/pgexecutor"
)

// openExecutor returns the configured adapter and a function releasing it.
func (app *App) openExecutor(ctx context.Context) (executor.Executor, func(), error) {
	if app.executor != nil {
		return app.executor, func() {}, nil
	}
	logger := ctxlog.FromContext(ctx)
	switch app.config.Adapter {
	case AdapterPostgres:
		logger.Debug("Connecting to PostgreSQL.")
		exec, closeFn, err := pgexecutor.Connect(ctx, app.config.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres adapter: %w", err)
		}
		return exec, closeFn, nil
	default:
		logger.Debug("Using the local dry-run adapter.")
		return localexecutor.New(), func() {}, nil
	}
}

// openMetrics returns a statsd observer, or nil when no address is set.
func (app *App) openMetrics(ctx context.Context, project string) (*metrics.Observer, func(), error) {
	if app.config.StatsdAddr == "" {
		return nil, func() {}, nil
	}
	client, err := metrics.Dial(app.config.StatsdAddr)
	if err != nil {
		return nil, nil, err
	}
	ctxlog.FromContext(ctx).Debug("Reporting metrics to statsd.", "address", app.config.StatsdAddr)
	return metrics.NewObserver(client, "project:"+project), func() { client.Close() }, nil
}
