package config

import (
	"github.com/vk/gridflow/internal/node"
	"github.com/zclconf/go-cty/cty"
)

// Project is the unified representation of one loaded project directory,
// either the root project or an installed package.
type Project struct {
	Name string
	// Concurrency and Retries are project-level defaults; zero means unset.
	Concurrency int
	Retries     int
	// Deprecated carries the deprecation notice of an installed package.
	Deprecated string

	Packages []*PackageSpec
	Nodes    []*RawNode
}

// PackageSpec is one external dependency the project declares.
type PackageSpec struct {
	Name string
	// Source is resolved against the declaring project's root. RawSource
	// is the value as written.
	Source    string
	RawSource string
	Revision  string
}

// RawNode is a node definition exactly as declared, before its references
// are resolved.
type RawNode struct {
	Kind        node.Kind
	Name        string
	Package     string
	Path        string
	Tags        []string
	DependsOn   []string
	Enabled     bool
	SQL         string
	Description string
	Config      map[string]cty.Value
}
