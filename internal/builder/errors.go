package builder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrCycle               = errors.New("dependency cycle")
	ErrDuplicateName       = errors.New("duplicate node name")
)

// GraphError is a fatal build failure. Kind is one of the sentinel errors
// above and is matched with errors.Is.
type GraphError struct {
	Kind error
	// Node is the qualified name of the offending node.
	Node string
	// Ref is the reference string that failed to resolve.
	Ref string
	// Path is the cycle, first and last element equal.
	Path []string
	Msg  string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	switch {
	case len(e.Path) > 0:
		sb.WriteString(": ")
		sb.WriteString(strings.Join(e.Path, " -> "))
	case e.Ref != "":
		fmt.Fprintf(&sb, ": %s references %q", e.Node, e.Ref)
	case e.Node != "":
		sb.WriteString(": ")
		sb.WriteString(e.Node)
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	return sb.String()
}

func (e *GraphError) Unwrap() error { return e.Kind }

func duplicateError(id, firstPath, secondPath string) error {
	return &GraphError{
		Kind: ErrDuplicateName,
		Node: id,
		Msg:  fmt.Sprintf("defined in %s and %s", firstPath, secondPath),
	}
}

func unresolvedError(id, ref, format string, args ...any) error {
	return &GraphError{
		Kind: ErrUnresolvedReference,
		Node: id,
		Ref:  ref,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func cycleError(path []string) error {
	return &GraphError{Kind: ErrCycle, Path: path}
}
