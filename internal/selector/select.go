package selector

import (
	"strings"

	"github.com/vk/gridflow/internal/graph"
)

// Compile builds the expression for a `--select`/`--exclude` pair. An empty
// selection means every node; an empty exclusion is ignored.
func Compile(selection, exclude string) (Expr, error) {
	var e Expr = All{}
	if strings.TrimSpace(selection) != "" {
		sel, err := Parse(selection)
		if err != nil {
			return nil, err
		}
		e = sel
	}
	if strings.TrimSpace(exclude) == "" {
		return e, nil
	}
	ex, err := Parse(exclude)
	if err != nil {
		return nil, err
	}
	return &Difference{Left: e, Right: ex}, nil
}

// Select parses and evaluates a selection in one step.
func Select(g *graph.Graph, selection, exclude string) ([]int, error) {
	e, err := Compile(selection, exclude)
	if err != nil {
		return nil, err
	}
	return Evaluate(e, g)
}
