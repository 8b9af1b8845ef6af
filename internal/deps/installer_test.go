package deps

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridflow/internal/config"
	"github.com/vk/gridflow/internal/node"
	"github.com/vk/gridflow/internal/pkgcache"
)

// fakeLoader serves projects by location.
type fakeLoader struct {
	projects map[string]*config.Project
}

func (l *fakeLoader) Load(_ context.Context, paths ...string) (*config.Project, error) {
	p, ok := l.projects[paths[0]]
	if !ok {
		return nil, fmt.Errorf("no project at %s", paths[0])
	}
	return p, nil
}

// countingFetch materializes source s at /pkgs/s and counts calls per key.
type countingFetch struct {
	mu    sync.Mutex
	calls map[pkgcache.Key]int
	fail  map[string]error
}

func newCountingFetch() *countingFetch {
	return &countingFetch{calls: make(map[pkgcache.Key]int), fail: make(map[string]error)}
}

func (f *countingFetch) Fetch(_ context.Context, k pkgcache.Key) (pkgcache.Package, error) {
	f.mu.Lock()
	f.calls[k]++
	err := f.fail[k.Source]
	f.mu.Unlock()
	if err != nil {
		return pkgcache.Package{}, err
	}
	return pkgcache.Package{Location: "/pkgs/" + k.Source, Fingerprint: "fp-" + k.Source}, nil
}

func (f *countingFetch) count(source string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k, c := range f.calls {
		if k.Source == source {
			n += c
		}
	}
	return n
}

func spec(name string) *config.PackageSpec {
	return &config.PackageSpec{Name: name, Source: name, Revision: "1.0"}
}

func pkgProject(name string, requires ...string) *config.Project {
	p := &config.Project{
		Name:  name,
		Nodes: []*config.RawNode{{Kind: node.KindModel, Name: name + "_model", Package: name, Enabled: true}},
	}
	for _, r := range requires {
		p.Packages = append(p.Packages, spec(r))
	}
	return p
}

// diamond: root -> a, b; a -> c; b -> c.
func diamond() (*config.Project, *fakeLoader) {
	loader := &fakeLoader{projects: map[string]*config.Project{
		"/pkgs/a": pkgProject("a", "c"),
		"/pkgs/b": pkgProject("b", "c"),
		"/pkgs/c": pkgProject("c"),
	}}
	root := &config.Project{Name: "shop", Packages: []*config.PackageSpec{spec("a"), spec("b")}}
	return root, loader
}

func TestInstall_TransitiveDiamondFetchesOnce(t *testing.T) {
	root, loader := diamond()
	fetch := newCountingFetch()

	res, err := NewInstaller(fetch.Fetch, loader).Install(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, res.Packages, 3)
	assert.Equal(t, "a", res.Packages[0].Name)
	assert.Equal(t, "b", res.Packages[1].Name)
	c := res.Packages[2]
	assert.Equal(t, "c", c.Name)
	assert.Equal(t, []string{"a", "b"}, c.RequiredBy)
	assert.Equal(t, "/pkgs/c", c.Package.Location)
	assert.Equal(t, "c", c.Package.Meta[MetaProject])

	for _, s := range []string{"a", "b", "c"} {
		assert.Equal(t, 1, fetch.count(s), "package %s fetched more than once", s)
	}
	assert.Equal(t, int64(3), res.Stats.Fetches)
	assert.Equal(t, int64(4), res.Stats.Hits+res.Stats.Misses)

	var names []string
	for _, n := range res.Nodes() {
		names = append(names, n.Name)
	}
	assert.ElementsMatch(t, []string{"a_model", "b_model", "c_model"}, names)
}

func TestInstall_ValidatorsSeeEveryRequirement(t *testing.T) {
	root, loader := diamond()
	loader.projects["/pkgs/c"].Deprecated = "use d instead"

	var mu sync.Mutex
	seen := map[string][]string{}
	record := func(_ context.Context, req Requirement, pkg pkgcache.Package) error {
		mu.Lock()
		defer mu.Unlock()
		seen[req.Spec.Name] = append(seen[req.Spec.Name], req.RequiredBy)
		return nil
	}

	res, err := NewInstaller(newCountingFetch().Fetch, loader,
		WithValidators(record, CheckDeprecated)).Install(context.Background(), root)
	require.NoError(t, err)

	// c is fetched once but validated for both requirements.
	assert.ElementsMatch(t, []string{"a", "b"}, seen["c"])
	assert.Equal(t, []string{
		`package "c": deprecated: use d instead`,
		`package "c": deprecated: use d instead`,
	}, res.Warnings)
}

func TestInstall_Errors(t *testing.T) {
	t.Run("fetch failure", func(t *testing.T) {
		root, loader := diamond()
		fetch := newCountingFetch()
		boom := errors.New("disk full")
		fetch.fail["c"] = boom

		_, err := NewInstaller(fetch.Fetch, loader).Install(context.Background(), root)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		var ferr *pkgcache.FetchError
		require.ErrorAs(t, err, &ferr)
		assert.Equal(t, "c", ferr.Key.Source)
	})

	t.Run("project name mismatch", func(t *testing.T) {
		root, loader := diamond()
		loader.projects["/pkgs/b"].Name = "not_b"

		_, err := NewInstaller(newCountingFetch().Fetch, loader).Install(context.Background(), root)
		assert.ErrorIs(t, err, ErrProjectMismatch)
	})

	t.Run("conflicting revisions", func(t *testing.T) {
		root, loader := diamond()
		loader.projects["/pkgs/b"].Packages[0].Revision = "2.0"

		_, err := NewInstaller(newCountingFetch().Fetch, loader).Install(context.Background(), root)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("unloadable package", func(t *testing.T) {
		root := &config.Project{Name: "shop", Packages: []*config.PackageSpec{spec("ghost")}}
		_, err := NewInstaller(newCountingFetch().Fetch, &fakeLoader{}).Install(context.Background(), root)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading package at /pkgs/ghost")
	})
}

func TestInstall_NoPackages(t *testing.T) {
	res, err := NewInstaller(newCountingFetch().Fetch, nil).Install(context.Background(), &config.Project{Name: "shop"})
	require.NoError(t, err)
	assert.Empty(t, res.Packages)
	assert.Empty(t, res.Nodes())
}

func TestInstall_RequirementCycle(t *testing.T) {
	loader := &fakeLoader{projects: map[string]*config.Project{
		"/pkgs/a": pkgProject("a", "b"),
		"/pkgs/b": pkgProject("b", "a"),
	}}
	root := &config.Project{Name: "shop", Packages: []*config.PackageSpec{spec("a")}}

	res, err := NewInstaller(newCountingFetch().Fetch, loader).Install(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, res.Packages, 2)
	assert.Equal(t, []string{"b", "shop"}, res.Packages[0].RequiredBy)
}
