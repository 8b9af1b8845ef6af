package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Projects  []*Project   `hcl:"project,block"`
	Packages  []*Package   `hcl:"package,block"`
	Models    []*NodeBlock `hcl:"model,block"`
	Tests     []*NodeBlock `hcl:"test,block"`
	Snapshots []*NodeBlock `hcl:"snapshot,block"`
	Seeds     []*NodeBlock `hcl:"seed,block"`
	Sources   []*NodeBlock `hcl:"source,block"`
	Exposures []*NodeBlock `hcl:"exposure,block"`
	Remain    hcl.Body     `hcl:",remain"`
}

// Project maps the `project "name" { ... }` block.
type Project struct {
	Name        string `hcl:"name,label"`
	Concurrency int    `hcl:"concurrency,optional"`
	Retries     int    `hcl:"retries,optional"`
	Deprecated  string `hcl:"deprecated,optional"`
}

// Package maps the `package "name" { ... }` block.
type Package struct {
	Name     string `hcl:"name,label"`
	Source   string `hcl:"source"`
	Revision string `hcl:"revision,optional"`
}

// NodeBlock maps every node block type; the block type itself becomes the
// node kind.
type NodeBlock struct {
	Name        string     `hcl:"name,label"`
	Path        string     `hcl:"path,optional"`
	Tags        []string   `hcl:"tags,optional"`
	DependsOn   []string   `hcl:"depends_on,optional"`
	Enabled     *bool      `hcl:"enabled,optional"`
	SQL         string     `hcl:"sql,optional"`
	Description string     `hcl:"description,optional"`
	Config      *ConfigBag `hcl:"config,block"`
}

// ConfigBag holds the free-form `config { ... }` block.
type ConfigBag struct {
	Body hcl.Body `hcl:",remain"`
}
