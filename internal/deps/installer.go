package deps

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/vk/gridflow/internal/config"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/pkgcache"
	"golang.org/x/sync/errgroup"
)

// ErrConflict is returned when one package name is required at two
// different sources or revisions.
var ErrConflict = errors.New("conflicting package requirements")

// Installed is one package after installation.
type Installed struct {
	Name       string
	Package    pkgcache.Package
	Project    *config.Project
	RequiredBy []string
}

// Result is the outcome of one Install call.
type Result struct {
	// Packages are ordered by name.
	Packages []*Installed
	Warnings []string
	Stats    pkgcache.Stats
}

// Nodes returns the raw nodes of every installed package.
func (r *Result) Nodes() []*config.RawNode {
	var out []*config.RawNode
	for _, p := range r.Packages {
		if p.Project != nil {
			out = append(out, p.Project.Nodes...)
		}
	}
	return out
}

// Installer resolves package requirements.
type Installer struct {
	fetch      pkgcache.FetchFunc
	loader     config.Loader
	validators []Validator
}

// Option configures an Installer.
type Option func(*Installer)

// WithValidators replaces the default validators.
func WithValidators(v ...Validator) Option {
	return func(in *Installer) { in.validators = v }
}

// NewInstaller returns an Installer that materializes packages with fetch
// and reads each materialized package with loader.
func NewInstaller(fetch pkgcache.FetchFunc, loader config.Loader, opts ...Option) *Installer {
	in := &Installer{
		fetch:      fetch,
		loader:     loader,
		validators: DefaultValidators(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// install is the state of one Install call.
type install struct {
	*Installer
	cache *pkgcache.Cache
	group *errgroup.Group

	mu       sync.Mutex
	byName   map[string]*Installed
	projects map[pkgcache.Key]*config.Project
	warnings []string
}

// Install installs every package root requires, transitively.
func (in *Installer) Install(ctx context.Context, root *config.Project) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	if len(root.Packages) == 0 {
		logger.Debug("No packages to install.")
		return &Result{}, nil
	}
	logger.Info("📦 Installing packages...", "direct", len(root.Packages))

	g, gctx := errgroup.WithContext(ctx)
	st := &install{
		Installer: in,
		cache:     pkgcache.New(),
		group:     g,
		byName:    make(map[string]*Installed),
		projects:  make(map[pkgcache.Key]*config.Project),
	}
	for _, spec := range root.Packages {
		st.require(gctx, Requirement{Spec: spec, RequiredBy: root.Name})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Warnings: st.warnings, Stats: st.cache.Stats()}
	for _, p := range st.byName {
		slices.Sort(p.RequiredBy)
		res.Packages = append(res.Packages, p)
	}
	slices.SortFunc(res.Packages, func(a, b *Installed) int { return strings.Compare(a.Name, b.Name) })
	slices.Sort(res.Warnings)

	logger.Info("📦 Packages installed.", "packages", len(res.Packages),
		"fetches", res.Stats.Fetches, "cache_hits", res.Stats.Hits)
	return res, nil
}

func (st *install) require(ctx context.Context, req Requirement) {
	st.group.Go(func() error {
		return st.resolve(ctx, req)
	})
}

func (st *install) resolve(ctx context.Context, req Requirement) error {
	key := pkgcache.Key{Source: req.Spec.Source, Revision: req.Spec.Revision}
	pkg, err := st.cache.GetOrFetch(ctx, key, st.fetchAndLoad)
	if err != nil {
		return fmt.Errorf("package %q required by %q: %w", req.Spec.Name, req.RequiredBy, err)
	}

	for _, validate := range st.validators {
		if err := validate(ctx, req, pkg); err != nil {
			var w *Warning
			if !errors.As(err, &w) {
				return fmt.Errorf("package %q required by %q: %w", req.Spec.Name, req.RequiredBy, err)
			}
			st.mu.Lock()
			st.warnings = append(st.warnings, w.Error())
			st.mu.Unlock()
		}
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if existing, ok := st.byName[req.Spec.Name]; ok {
		if existing.Package.Key != key {
			return fmt.Errorf("%w: %q is required at %s by %q and at %s by %q", ErrConflict,
				req.Spec.Name, existing.Package.Key, strings.Join(existing.RequiredBy, ", "), key, req.RequiredBy)
		}
		existing.RequiredBy = append(existing.RequiredBy, req.RequiredBy)
		return nil
	}

	proj := st.projects[key]
	st.byName[req.Spec.Name] = &Installed{
		Name:       req.Spec.Name,
		Package:    pkg,
		Project:    proj,
		RequiredBy: []string{req.RequiredBy},
	}
	if proj != nil {
		for _, sub := range proj.Packages {
			st.require(ctx, Requirement{Spec: sub, RequiredBy: req.Spec.Name})
		}
	}
	return nil
}

// fetchAndLoad is the cache's fetch function: materialize the package, then
// read its project so the metadata validators need is on the package.
func (st *install) fetchAndLoad(ctx context.Context, key pkgcache.Key) (pkgcache.Package, error) {
	pkg, err := st.fetch(ctx, key)
	if err != nil {
		return pkgcache.Package{}, err
	}
	if st.loader == nil {
		return pkg, nil
	}

	proj, err := st.loader.Load(ctx, pkg.Location)
	if err != nil {
		return pkgcache.Package{}, fmt.Errorf("loading package at %s: %w", pkg.Location, err)
	}
	meta := make(map[string]string, len(pkg.Meta)+2)
	for k, v := range pkg.Meta {
		meta[k] = v
	}
	meta[MetaProject] = proj.Name
	// The loader resolved relative sources against the copy; they were
	// written relative to the original.
	for _, sub := range proj.Packages {
		if sub.RawSource != "" && !filepath.IsAbs(sub.RawSource) {
			sub.Source = filepath.Join(key.Source, sub.RawSource)
		}
	}
	if proj.Deprecated != "" {
		meta[MetaDeprecated] = proj.Deprecated
	}
	pkg.Meta = meta

	st.mu.Lock()
	st.projects[key] = proj
	st.mu.Unlock()
	return pkg, nil
}
