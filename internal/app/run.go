package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vk/gridflow/internal/node"
	"github.com/vk/gridflow/internal/progress"
	"github.com/vk/gridflow/internal/report"
	"github.com/vk/gridflow/internal/scheduler"
)

// Run loads the project, selects nodes and executes them. Node failures are
// reported through the returned report and ErrRunFailed; any other error
// means the run never started.
func (app *App) Run(ctx context.Context) (*scheduler.RunReport, error) {
	ctx = app.withContext(ctx)
	logger := app.logger()
	logger.Debug("App.Run method started.")

	ws, err := app.loadWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	selected, desc, err := app.selectNodes(ctx, ws.graph)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		logger.Warn("No nodes selected, execution not required.")
	}

	exec, closeExec, err := app.openExecutor(ctx)
	if err != nil {
		return nil, err
	}
	defer closeExec()

	invocationID := uuid.NewString()
	observers := append([]scheduler.Observer{progress.NewLogObserver(logger)}, app.observers...)

	stats, closeStats, err := app.openMetrics(ctx, ws.root.Name)
	if err != nil {
		return nil, err
	}
	defer closeStats()
	if stats != nil {
		observers = append(observers, stats)
	}

	var broadcaster *progress.Broadcaster
	if app.config.HealthcheckPort > 0 {
		broadcaster = progress.NewBroadcaster(invocationID)
		observers = append(observers, broadcaster)
		app.healthCheckServer(broadcaster)
		defer func() {
			_ = app.closeHealthCheckServer()
			broadcaster.Close()
		}()
	}

	opts := scheduler.Options{
		MaxConcurrency: app.workers(ws.root.Concurrency),
		Retry:          scheduler.RetryPolicy{MaxAttempts: app.retries(ws.root.Retries) + 1},
		NodeTimeout:    app.config.NodeTimeout,
		Observers:      observers,
		InvocationID:   invocationID,
	}
	logger.Info("🚀 Starting run...", "invocation_id", invocationID, "selected", len(selected),
		"workers", opts.MaxConcurrency, "max_attempts", opts.Retry.MaxAttempts)

	rep, err := scheduler.Run(ctx, ws.graph, selected, exec, opts)
	if err != nil {
		return nil, fmt.Errorf("execution failed: %w", err)
	}

	counts := rep.Counts()
	logger.Info("🏁 Run finished.", "success", rep.Success, "elapsed", rep.Elapsed(),
		"succeeded", counts[node.StatusSuccess], "failed", counts[node.StatusError],
		"skipped", counts[node.StatusSkipped]+counts[node.StatusFailUpstream], "cancelled", counts[node.StatusCancelled])

	if broadcaster != nil {
		broadcaster.Finish(rep)
	}
	if stats != nil {
		stats.Finish(rep)
	}
	if app.config.ReportPath != "" {
		if err := report.Write(app.config.ReportPath, report.New(rep, desc, time.Now())); err != nil {
			return rep, fmt.Errorf("failed to write run report: %w", err)
		}
		logger.Debug("Run report written.", "path", app.config.ReportPath)
	}

	if !rep.Success {
		return rep, fmt.Errorf("%w: %d failed, %d cancelled", ErrRunFailed, counts[node.StatusError], counts[node.StatusCancelled])
	}
	return rep, nil
}

func (app *App) workers(projectDefault int) int {
	if app.config.Workers > 0 {
		return app.config.Workers
	}
	if projectDefault > 0 {
		return projectDefault
	}
	return scheduler.DefaultConcurrency
}

func (app *App) retries(projectDefault int) int {
	if app.config.Retries >= 0 {
		return app.config.Retries
	}
	return max(projectDefault, 0)
}
