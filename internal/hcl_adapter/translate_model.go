// This file translates the decoded HCL schema structs into the
// format-agnostic project model defined in the config package.

package hcl_adapter

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/gridflow/internal/config"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/node"
	"github.com/vk/gridflow/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

func translateProject(p *Project) (*config.Project, error) {
	if !nodeid.ValidIdentifier(p.Name) {
		return nil, fmt.Errorf("invalid project name %q", p.Name)
	}
	if p.Concurrency < 0 {
		return nil, fmt.Errorf("project %q: concurrency must not be negative", p.Name)
	}
	if p.Retries < 0 {
		return nil, fmt.Errorf("project %q: retries must not be negative", p.Name)
	}
	return &config.Project{
		Name:        p.Name,
		Concurrency: p.Concurrency,
		Retries:     p.Retries,
		Deprecated:  p.Deprecated,
	}, nil
}

// translatePackage resolves a relative source against the declaring
// project's root.
func translatePackage(p *Package, base string) (*config.PackageSpec, error) {
	if !nodeid.ValidIdentifier(p.Name) {
		return nil, fmt.Errorf("invalid package name %q", p.Name)
	}
	if p.Source == "" {
		return nil, fmt.Errorf("package %q: source must not be empty", p.Name)
	}
	source := p.Source
	if !filepath.IsAbs(source) {
		source = filepath.Join(base, source)
	}
	return &config.PackageSpec{
		Name:      p.Name,
		Source:    source,
		RawSource: p.Source,
		Revision:  p.Revision,
	}, nil
}

func translateNode(ctx context.Context, kind node.Kind, b *NodeBlock, file string) (*config.RawNode, error) {
	logger := ctxlog.FromContext(ctx).With("kind", kind.String(), "name", b.Name)

	if !nodeid.ValidIdentifier(b.Name) {
		return nil, fmt.Errorf("invalid %s name %q: names must start with a letter or underscore and contain only letters, digits and underscores", kind, b.Name)
	}

	enabled := true
	if b.Enabled != nil {
		enabled = *b.Enabled
	}
	path := b.Path
	if path == "" {
		path = file
	}

	cfg, err := decodeConfigBag(b.Config)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", kind, b.Name, err)
	}

	logger.Debug("Translating HCL node to internal config model.", "depends_on", len(b.DependsOn), "enabled", enabled)
	return &config.RawNode{
		Kind:        kind,
		Name:        b.Name,
		Path:        path,
		Tags:        b.Tags,
		DependsOn:   b.DependsOn,
		Enabled:     enabled,
		SQL:         b.SQL,
		Description: b.Description,
		Config:      cfg,
	}, nil
}

// decodeConfigBag evaluates every attribute of a config block without an
// evaluation context, so only literal values are accepted.
func decodeConfigBag(bag *ConfigBag) (map[string]cty.Value, error) {
	if bag == nil || bag.Body == nil {
		return nil, nil
	}
	attrs, diags := bag.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid config block: %w", diags)
	}
	out := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid config value %q: %w", name, diags)
		}
		out[name] = val
	}
	return out, nil
}
