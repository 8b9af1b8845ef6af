package selector

import (
	"fmt"
	"math/big"
	"path"
	"strings"

	"github.com/vk/gridflow/internal/node"
	"github.com/vk/gridflow/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// Predicate tests a single node.
type Predicate func(n *node.Node) bool

// Matcher is a compiled leaf. Explicit matchers name nodes exactly, which
// lets them pick disabled nodes.
type Matcher struct {
	Match    Predicate
	Explicit bool
}

// MethodFunc builds a Matcher from a leaf. arg is the part of the method
// name after the first dot (`config.materialized` has arg `materialized`).
type MethodFunc func(arg, value string) (Matcher, error)

// Methods maps a method name to its constructor.
type Methods map[string]MethodFunc

// DefaultMethods returns a fresh registry with the built-in methods.
func DefaultMethods() Methods {
	return Methods{
		"tag":           noArg(tagMethod),
		"path":          noArg(pathMethod),
		"package":       noArg(packageMethod),
		"name":          noArg(nameMethod),
		"id":            noArg(idMethod),
		"resource_type": noArg(resourceTypeMethod),
		"config":        configMethod,
	}
}

// compileLeaf resolves a leaf against the registry.
func (m Methods) compileLeaf(l *Leaf) (Matcher, error) {
	if l.Method == "" {
		return bareMethod(l.Value)
	}
	name, arg, _ := strings.Cut(l.Method, ".")
	fn, ok := m[name]
	if !ok {
		return Matcher{}, newError(ErrUnknownMethod, "%q", l.Method)
	}
	return fn(arg, l.Value)
}

func noArg(fn func(value string) (Matcher, error)) MethodFunc {
	return func(arg, value string) (Matcher, error) {
		if arg != "" {
			return Matcher{}, newError(ErrUnknownMethod, "method does not take a key: %q", arg)
		}
		return fn(value)
	}
}

func hasGlob(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// globMatcher validates pattern once so a bad pattern fails the selection
// instead of silently matching nothing.
func globMatcher(pattern string) (func(string) bool, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, newError(ErrMalformed, "bad pattern %q: %v", pattern, err)
	}
	return func(s string) bool {
		ok, _ := path.Match(pattern, s)
		return ok
	}, nil
}

func tagMethod(value string) (Matcher, error) {
	match, err := globMatcher(value)
	if err != nil {
		return Matcher{}, err
	}
	return Matcher{Match: func(n *node.Node) bool {
		for _, t := range n.Tags {
			if match(t) {
				return true
			}
		}
		return false
	}}, nil
}

// pathMethod matches a node's file path. A plain value selects that file or
// everything beneath that directory. A glob follows path.Match, so `*` stays
// within one segment, and it also selects everything beneath a directory the
// glob matches: `models/*` covers `models/staging/a.hcl`.
func pathMethod(value string) (Matcher, error) {
	if hasGlob(value) {
		match, err := globMatcher(strings.TrimSuffix(value, "/"))
		if err != nil {
			return Matcher{}, err
		}
		return Matcher{Match: func(n *node.Node) bool {
			if match(n.Path) {
				return true
			}
			for i := range len(n.Path) {
				if n.Path[i] == '/' && match(n.Path[:i]) {
					return true
				}
			}
			return false
		}}, nil
	}
	dir := strings.TrimSuffix(value, "/") + "/"
	return Matcher{Match: func(n *node.Node) bool {
		return n.Path == value || strings.HasPrefix(n.Path, dir)
	}}, nil
}

func packageMethod(value string) (Matcher, error) {
	return Matcher{Match: func(n *node.Node) bool { return n.Package == value }}, nil
}

func nameMethod(value string) (Matcher, error) {
	if !hasGlob(value) {
		return Matcher{Match: func(n *node.Node) bool { return n.Name == value }}, nil
	}
	match, err := globMatcher(value)
	if err != nil {
		return Matcher{}, err
	}
	return Matcher{Match: func(n *node.Node) bool { return match(n.Name) }}, nil
}

func idMethod(value string) (Matcher, error) {
	id, err := nodeid.Parse(value)
	if err != nil {
		return Matcher{}, newError(ErrMalformed, "%v", err)
	}
	return Matcher{Match: func(n *node.Node) bool { return n.ID == id }, Explicit: true}, nil
}

func resourceTypeMethod(value string) (Matcher, error) {
	kind, ok := node.ParseKind(value)
	if !ok {
		return Matcher{}, newError(ErrMalformed, "unknown resource type %q, expected one of %s", value, strings.Join(node.Kinds(), ", "))
	}
	return Matcher{Match: func(n *node.Node) bool { return n.Kind == kind }}, nil
}

func configMethod(key, value string) (Matcher, error) {
	if key == "" {
		return Matcher{}, newError(ErrMalformed, "config method needs a key, as in config.materialized:table")
	}
	return Matcher{Match: func(n *node.Node) bool {
		v, ok := n.Config[key]
		if !ok {
			return false
		}
		s, ok := ctyString(v)
		return ok && s == value
	}}, nil
}

// bareMethod picks the method a bare value stands for.
func bareMethod(value string) (Matcher, error) {
	switch {
	case strings.Contains(value, "/"):
		return pathMethod(value)
	case strings.Contains(value, ".") && !hasGlob(value):
		return idMethod(value)
	default:
		m, err := nameMethod(value)
		m.Explicit = err == nil && !hasGlob(value)
		return m, err
	}
}

// ctyString renders primitive config values the way they are written in a
// selector.
func ctyString(v cty.Value) (string, bool) {
	if v.IsNull() || !v.IsKnown() {
		return "", false
	}
	switch v.Type() {
	case cty.String:
		return v.AsString(), true
	case cty.Bool:
		return fmt.Sprintf("%t", v.True()), true
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int(new(big.Int))
			return i.String(), true
		}
		return bf.Text('f', -1), true
	default:
		return "", false
	}
}
