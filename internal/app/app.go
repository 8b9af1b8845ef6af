package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/gridflow/internal/config"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/hcl_adapter"
	"github.com/vk/gridflow/internal/scheduler"
)

var (
	// ErrEmptySelection is returned when nothing was selected and the
	// caller asked for that to be an error.
	ErrEmptySelection = errors.New("selection matched no nodes")
	// ErrRunFailed is returned by Run when at least one node failed or the
	// run was cancelled. The report is returned alongside it.
	ErrRunFailed = errors.New("run failed")
	// ErrUnknownSelector is returned for a --selector name that the
	// selectors file does not define.
	ErrUnknownSelector = errors.New("unknown selector")
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	ctx    context.Context
	config *Config

	loader    config.Loader
	executor  executor.Executor
	observers []scheduler.Observer

	httpServer *http.Server
}

// Option customizes an App. Tests use options to swap in fakes.
type Option func(*App)

// WithLoader replaces the HCL loader.
func WithLoader(l config.Loader) Option {
	return func(app *App) { app.loader = l }
}

// WithExecutor replaces the adapter selected by Config.Adapter.
func WithExecutor(e executor.Executor) Option {
	return func(app *App) { app.executor = e }
}

// WithObservers adds observers to every run.
func WithObservers(o ...scheduler.Observer) Option {
	return func(app *App) { app.observers = append(app.observers, o...) }
}

// NewApp is the constructor for the main application. Each App has its own
// logger writing to outW.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	app := &App{
		outW:   outW,
		ctx:    ctx,
		config: cfg,
		loader: hcl_adapter.NewLoader(),
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// withContext attaches the app logger to ctx and remembers it for the
// background servers.
func (app *App) withContext(ctx context.Context) context.Context {
	ctx = ctxlog.WithLogger(ctx, app.logger())
	app.ctx = ctx
	return ctx
}

func (app *App) logger() *slog.Logger {
	return ctxlog.FromContext(app.ctx)
}
