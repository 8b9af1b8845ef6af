// Package config defines the format-agnostic project model and the Loader
// interface that produces it.
//
// The `config.Project` is the single source of truth for the builder and the
// package installer. Concrete loaders, such as the HCL one, live in separate
// packages.
package config
