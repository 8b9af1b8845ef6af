package selector

import (
	"fmt"

	"github.com/vk/gridflow/internal/graph"
)

// Evaluator evaluates ASTs using a method registry.
type Evaluator struct {
	methods Methods
}

// NewEvaluator returns an Evaluator over methods. A nil registry means
// DefaultMethods.
func NewEvaluator(methods Methods) *Evaluator {
	if methods == nil {
		methods = DefaultMethods()
	}
	return &Evaluator{methods: methods}
}

// Evaluate selects with the built-in methods.
func Evaluate(e Expr, g *graph.Graph) ([]int, error) {
	return NewEvaluator(nil).Evaluate(e, g)
}

// Evaluate returns the indices of the selected nodes in discovery order.
// Every leaf is compiled before any set is computed, so an unknown method
// fails the whole selection. An empty result is not an error.
func (ev *Evaluator) Evaluate(e Expr, g *graph.Graph) ([]int, error) {
	if e == nil {
		return nil, newError(ErrMalformed, "nil expression")
	}
	leaves := make(map[*Leaf]Matcher)
	if err := ev.compile(e, leaves); err != nil {
		return nil, err
	}

	run := &evaluation{g: g, leaves: leaves}
	result := run.eval(e)

	out := []int{}
	for i, in := range result.in {
		if in && (g.Node(i).Enabled || result.explicit[i]) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (ev *Evaluator) compile(e Expr, leaves map[*Leaf]Matcher) error {
	switch x := e.(type) {
	case All:
		return nil
	case *Leaf:
		m, err := ev.methods.compileLeaf(x)
		if err != nil {
			if serr, ok := err.(*SelectorError); ok && serr.Msg != "" {
				serr.Msg = fmt.Sprintf("%s (in %q)", serr.Msg, x.String())
			}
			return err
		}
		leaves[x] = m
		return nil
	case *Ancestors:
		if x.Depth < Unbounded {
			return newError(ErrInvalidDepth, "depth %d is negative", x.Depth)
		}
		return ev.compile(x.X, leaves)
	case *Descendants:
		if x.Depth < Unbounded {
			return newError(ErrInvalidDepth, "depth %d is negative", x.Depth)
		}
		return ev.compile(x.X, leaves)
	case *ChildrenParents:
		return ev.compile(x.X, leaves)
	case *Not:
		return ev.compile(x.X, leaves)
	case *Union:
		return ev.compileAll(x.Terms, leaves)
	case *Intersect:
		return ev.compileAll(x.Terms, leaves)
	case *Difference:
		return ev.compileAll([]Expr{x.Left, x.Right}, leaves)
	default:
		return newError(ErrMalformed, "unsupported expression %T", e)
	}
}

func (ev *Evaluator) compileAll(terms []Expr, leaves map[*Leaf]Matcher) error {
	if len(terms) == 0 {
		return newError(ErrMalformed, "combinator without operands")
	}
	for _, t := range terms {
		if t == nil {
			return newError(ErrMalformed, "nil operand")
		}
		if err := ev.compile(t, leaves); err != nil {
			return err
		}
	}
	return nil
}

// set is a membership bitmap indexed like the graph.
type set []bool

// selection is the result of one subexpression. explicit marks members
// that an explicit leaf put there; only those may be disabled.
type selection struct {
	in       set
	explicit set
}

func (r *evaluation) empty() selection {
	n := r.g.Len()
	return selection{in: make(set, n), explicit: make(set, n)}
}

type evaluation struct {
	g      *graph.Graph
	leaves map[*Leaf]Matcher
}

func (r *evaluation) eval(e Expr) selection {
	switch x := e.(type) {
	case All:
		out := r.empty()
		for i := range out.in {
			out.in[i] = true
		}
		return out

	case *Leaf:
		m := r.leaves[x]
		out := r.empty()
		for i := range out.in {
			if m.Match(r.g.Node(i)) {
				out.in[i] = true
				out.explicit[i] = m.Explicit
			}
		}
		return out

	case *Ancestors:
		base := r.eval(x.X)
		base.in.with(r.g.Ancestors(base.in.members(), x.Depth))
		return base

	case *Descendants:
		base := r.eval(x.X)
		base.in.with(r.g.Descendants(base.in.members(), x.Depth))
		return base

	case *ChildrenParents:
		base := r.eval(x.X)
		base.in.with(r.g.Descendants(base.in.members(), Unbounded))
		base.in.with(r.g.Ancestors(base.in.members(), Unbounded))
		return base

	case *Union:
		out := r.empty()
		for _, t := range x.Terms {
			term := r.eval(t)
			for i := range out.in {
				out.in[i] = out.in[i] || term.in[i]
				out.explicit[i] = out.explicit[i] || term.explicit[i]
			}
		}
		return out

	case *Intersect:
		// A member is explicit when it survives every term and at least one
		// term named it.
		out := r.eval(x.Terms[0])
		for _, t := range x.Terms[1:] {
			term := r.eval(t)
			for i := range out.in {
				out.in[i] = out.in[i] && term.in[i]
				out.explicit[i] = out.in[i] && (out.explicit[i] || term.explicit[i])
			}
		}
		return out

	case *Difference:
		out := r.eval(x.Left)
		right := r.eval(x.Right)
		for i, in := range right.in {
			if in {
				out.in[i] = false
				out.explicit[i] = false
			}
		}
		return out

	case *Not:
		inner := r.eval(x.X)
		out := r.empty()
		for i, in := range inner.in {
			out.in[i] = !in
		}
		return out
	}
	panic(fmt.Sprintf("selector: uncompiled expression %T", e))
}

func (s set) members() []int {
	var out []int
	for i, in := range s {
		if in {
			out = append(out, i)
		}
	}
	return out
}

// with adds indices to s in place and returns it.
func (s set) with(indices []int) set {
	for _, i := range indices {
		s[i] = true
	}
	return s
}
