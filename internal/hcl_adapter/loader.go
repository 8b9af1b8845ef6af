package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/gridflow/internal/config"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/fsutil"
	"github.com/vk/gridflow/internal/node"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL project loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load parses every .hcl file under paths into one Project. Exactly one
// `project` block must be declared across all files; every node is stamped
// with that project's name as its package.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Project, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	parser := hclparse.NewParser()
	var (
		project *config.Project
		nodes   []*config.RawNode
		specs   []*config.PackageSpec
	)

	for _, root := range paths {
		base, err := rootDir(root)
		if err != nil {
			return nil, err
		}
		files, err := fsutil.FindFilesByExtension(".hcl", root)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", root, err)
		}
		logger.Debug("Discovered HCL files.", "root", root, "count", len(files))

		for _, file := range files {
			hclFile, diags := parser.ParseHCLFile(file)
			if diags.HasErrors() {
				return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
			}

			var fr fileRoot
			if diags := gohcl.DecodeBody(hclFile.Body, nil, &fr); diags.HasErrors() {
				return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
			}

			for _, p := range fr.Projects {
				if project != nil {
					return nil, fmt.Errorf("%s: project %q already declared as %q", file, p.Name, project.Name)
				}
				project, err = translateProject(p)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", file, err)
				}
			}
			for _, p := range fr.Packages {
				spec, err := translatePackage(p, base)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", file, err)
				}
				specs = append(specs, spec)
			}

			rel := relPath(base, file)
			for _, group := range []struct {
				kind   node.Kind
				blocks []*NodeBlock
			}{
				{node.KindModel, fr.Models},
				{node.KindTest, fr.Tests},
				{node.KindSnapshot, fr.Snapshots},
				{node.KindSeed, fr.Seeds},
				{node.KindSource, fr.Sources},
				{node.KindExposure, fr.Exposures},
			} {
				for _, b := range group.blocks {
					raw, err := translateNode(ctx, group.kind, b, rel)
					if err != nil {
						return nil, fmt.Errorf("%s: %w", file, err)
					}
					nodes = append(nodes, raw)
				}
			}
		}
	}

	if project == nil {
		return nil, fmt.Errorf("no project block found in %v", paths)
	}
	for _, n := range nodes {
		n.Package = project.Name
	}
	project.Nodes = nodes
	project.Packages = specs

	logger.Debug("HCL loading complete.", "project", project.Name, "nodes", len(nodes), "packages", len(specs))
	return project, nil
}

// rootDir returns the directory relative paths are computed against.
func rootDir(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", fmt.Errorf("error accessing path %s: %w", path, err)
	}
	if info.IsDir() {
		return path, nil
	}
	return filepath.Dir(path), nil
}

func relPath(base, file string) string {
	rel, err := filepath.Rel(base, file)
	if err != nil {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}
