package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/graph"
	"github.com/vk/gridflow/internal/selector"
)

// resolveSelection picks the expression for this invocation: --select and
// --exclude win, then a named selector, then the selectors file default, then
// every node. The returned string describes the choice for the report.
func (app *App) resolveSelection(ctx context.Context) (selector.Expr, string, error) {
	logger := ctxlog.FromContext(ctx)
	cfg := app.config

	if cfg.Select != "" || cfg.Exclude != "" {
		expr, err := selector.Compile(cfg.Select, cfg.Exclude)
		if err != nil {
			return nil, "", err
		}
		return expr, expr.String(), nil
	}

	file, err := app.selectorsFile()
	if err != nil {
		return nil, "", err
	}

	if cfg.Selector != "" {
		if file == nil {
			return nil, "", fmt.Errorf("%w %q: no selectors file at %s", ErrUnknownSelector, cfg.Selector, cfg.SelectorsPath)
		}
		named, ok := file.Lookup(cfg.Selector)
		if !ok {
			return nil, "", fmt.Errorf("%w %q", ErrUnknownSelector, cfg.Selector)
		}
		expr, err := named.Expr()
		if err != nil {
			return nil, "", err
		}
		return expr, named.Name, nil
	}

	if file != nil {
		if named, ok := file.Default(); ok {
			logger.Info("Using default selector.", "selector", named.Name)
			expr, err := named.Expr()
			if err != nil {
				return nil, "", err
			}
			return expr, named.Name, nil
		}
	}
	return selector.All{}, "", nil
}

// selectorsFile loads the selectors file, or returns nil when there is none.
func (app *App) selectorsFile() (*selector.File, error) {
	if app.config.SelectorsPath == "" {
		return nil, nil
	}
	file, err := selector.LoadFile(app.config.SelectorsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return file, err
}

// selectNodes evaluates the invocation's selection against g.
func (app *App) selectNodes(ctx context.Context, g *graph.Graph) ([]int, string, error) {
	expr, desc, err := app.resolveSelection(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve selection: %w", err)
	}
	selected, err := selector.Evaluate(expr, g)
	if err != nil {
		return nil, "", fmt.Errorf("failed to evaluate selection: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Selection evaluated.", "selector", expr.String(), "selected", len(selected))

	if len(selected) == 0 && app.config.FailOnEmpty {
		return nil, "", ErrEmptySelection
	}
	return selected, desc, nil
}
