package selector

import (
	"strconv"
	"strings"
)

// Unbounded is the Depth of a traversal without a hop limit.
const Unbounded = -1

// Expr is a node of the selector AST.
type Expr interface {
	String() string
	expr()
}

// All selects every enabled node.
type All struct{}

// Leaf matches nodes with a single method predicate. An empty Method means
// the value was written bare.
type Leaf struct {
	Method string
	Value  string
}

// Ancestors selects X plus every node upstream of it within Depth hops.
type Ancestors struct {
	X     Expr
	Depth int
}

// Descendants selects X plus every node downstream of it within Depth hops.
type Descendants struct {
	X     Expr
	Depth int
}

// ChildrenParents selects X, its descendants, and the ancestors of all of
// those.
type ChildrenParents struct {
	X Expr
}

type Union struct {
	Terms []Expr
}

type Intersect struct {
	Terms []Expr
}

// Difference is Left minus Right.
type Difference struct {
	Left, Right Expr
}

// Not is the complement of X against every node in the graph.
type Not struct {
	X Expr
}

func (All) expr()              {}
func (*Leaf) expr()            {}
func (*Ancestors) expr()       {}
func (*Descendants) expr()     {}
func (*ChildrenParents) expr() {}
func (*Union) expr()           {}
func (*Intersect) expr()       {}
func (*Difference) expr()      {}
func (*Not) expr()             {}

func (All) String() string { return "*" }

func (l *Leaf) String() string {
	if l.Method == "" {
		return l.Value
	}
	return l.Method + ":" + l.Value
}

func (a *Ancestors) String() string {
	prefix := "+"
	if a.Depth != Unbounded {
		prefix = strconv.Itoa(a.Depth) + "+"
	}
	return prefix + wrap(a.X)
}

func (d *Descendants) String() string {
	suffix := "+"
	if d.Depth != Unbounded {
		suffix += strconv.Itoa(d.Depth)
	}
	return wrap(d.X) + suffix
}

func (c *ChildrenParents) String() string { return "@" + wrap(c.X) }

func (u *Union) String() string {
	parts := make([]string, len(u.Terms))
	for i, t := range u.Terms {
		parts[i] = t.String()
		if _, ok := t.(*Union); ok {
			parts[i] = "(" + parts[i] + ")"
		}
	}
	return strings.Join(parts, " ")
}

func (x *Intersect) String() string {
	parts := make([]string, len(x.Terms))
	for i, t := range x.Terms {
		parts[i] = wrapCombinator(t)
	}
	return strings.Join(parts, ",")
}

// String renders the difference as an intersection with a negation, which
// selects the same nodes.
func (d *Difference) String() string {
	return wrapCombinator(d.Left) + ",!" + wrap(d.Right)
}

func (n *Not) String() string { return "!" + wrap(n.X) }

// wrap parenthesizes anything but a leaf.
func wrap(e Expr) string {
	switch e.(type) {
	case *Leaf, All:
		return e.String()
	default:
		return "(" + e.String() + ")"
	}
}

// wrapCombinator parenthesizes operands that bind looser than ",".
func wrapCombinator(e Expr) string {
	switch e.(type) {
	case *Union, *Intersect, *Difference:
		return "(" + e.String() + ")"
	default:
		return e.String()
	}
}
