package deps

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/gridflow/internal/config"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/pkgcache"
)

// Meta keys set on every package the installer retrieves.
const (
	MetaProject    = "project"
	MetaDeprecated = "deprecated"
)

// ErrProjectMismatch is returned when a package's project name differs from
// the name it was required under.
var ErrProjectMismatch = errors.New("package project name mismatch")

// Requirement is one edge of the package graph: Spec required by the
// project or package RequiredBy.
type Requirement struct {
	Spec       *config.PackageSpec
	RequiredBy string
}

// Warning is a validation finding that does not stop the install.
type Warning struct {
	Package string
	Msg     string
}

func (w *Warning) Error() string {
	return fmt.Sprintf("package %q: %s", w.Package, w.Msg)
}

// Validator checks a retrieved package against the requirement that asked
// for it. Returning a *Warning records it and continues; any other error
// fails the install.
type Validator func(ctx context.Context, req Requirement, pkg pkgcache.Package) error

// DefaultValidators are run by an Installer unless replaced.
func DefaultValidators() []Validator {
	return []Validator{CheckProjectName, CheckDeprecated}
}

// CheckProjectName requires the package's project block to carry the name
// it is required under, since its nodes are qualified by that name.
func CheckProjectName(_ context.Context, req Requirement, pkg pkgcache.Package) error {
	name, ok := pkg.Meta[MetaProject]
	if !ok || name == req.Spec.Name {
		return nil
	}
	return fmt.Errorf("%w: %q is required as %q by %q", ErrProjectMismatch, name, req.Spec.Name, req.RequiredBy)
}

// CheckDeprecated warns about a deprecated package.
func CheckDeprecated(ctx context.Context, req Requirement, pkg pkgcache.Package) error {
	notice := pkg.Meta[MetaDeprecated]
	if notice == "" {
		return nil
	}
	ctxlog.FromContext(ctx).Warn("Package is deprecated.",
		"package", req.Spec.Name, "required_by", req.RequiredBy, "notice", notice)
	return &Warning{Package: req.Spec.Name, Msg: "deprecated: " + notice}
}
