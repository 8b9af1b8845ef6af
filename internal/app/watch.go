package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/gridflow/internal/progress"
)

// watchConnectTimeout bounds the initial connection of Watch.
const watchConnectTimeout = 15 * time.Second

// Watch prints the transitions of a run served at Config.WatchURL until the
// run finishes or ctx is done.
func (app *App) Watch(ctx context.Context) error {
	ctx = app.withContext(ctx)
	app.logger().Info("📡 Watching run progress...", "url", app.config.WatchURL)

	return progress.Watch(ctx, app.config.WatchURL, watchConnectTimeout, progress.Handlers{
		OnTransition: func(m progress.Message) {
			fmt.Fprintln(app.outW, progress.Format(m))
		},
		OnFinished: func(s progress.Summary) {
			fmt.Fprintln(app.outW, progress.FormatSummary(s))
		},
	})
}
