package app

import (
	"context"
)

// List returns the ids of the selected nodes in topological order.
func (app *App) List(ctx context.Context) ([]string, error) {
	ctx = app.withContext(ctx)

	ws, err := app.loadWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	selected, _, err := app.selectNodes(ctx, ws.graph)
	if err != nil {
		return nil, err
	}

	in := make(map[int]struct{}, len(selected))
	for _, i := range selected {
		in[i] = struct{}{}
	}
	out := make([]string, 0, len(selected))
	for _, i := range ws.graph.TopoOrder() {
		if _, ok := in[i]; ok {
			out = append(out, ws.graph.Node(i).ID.String())
		}
	}
	return out, nil
}
