package app

import (
	"context"
	"fmt"
	"slices"

	"github.com/vk/gridflow/internal/builder"
	"github.com/vk/gridflow/internal/config"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/deps"
	"github.com/vk/gridflow/internal/graph"
	"github.com/vk/gridflow/internal/pkgindex"
)

// workspace is the root project, its installed packages and the graph built
// from all of them.
type workspace struct {
	root     *config.Project
	packages *deps.Result
	graph    *graph.Graph
}

// loadWorkspace reads the project, installs its packages and builds the
// graph.
func (app *App) loadWorkspace(ctx context.Context) (*workspace, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading project...", "project_path", app.config.ProjectPath)

	root, err := app.loader.Load(ctx, app.config.ProjectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	logger.Debug("Project loaded.", "project", root.Name, "nodes", len(root.Nodes), "packages", len(root.Packages))

	installed, err := app.installPackages(ctx, root)
	if err != nil {
		return nil, err
	}

	raw := slices.Concat(root.Nodes, installed.Nodes())
	g, err := builder.Build(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}
	logger.Info("Dependency graph built.", "nodes", g.Len(), "edges", g.EdgeCount())

	return &workspace{root: root, packages: installed, graph: g}, nil
}

func (app *App) installPackages(ctx context.Context, root *config.Project) (*deps.Result, error) {
	if len(root.Packages) == 0 {
		return &deps.Result{}, nil
	}

	index, err := pkgindex.Open(app.config.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open package index: %w", err)
	}
	defer index.Close()

	fetcher := deps.NewLocalFetcher(app.config.PackagesPath, index)
	res, err := deps.NewInstaller(fetcher.Fetch, app.loader).Install(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to install packages: %w", err)
	}
	return res, nil
}
