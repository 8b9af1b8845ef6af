package selector

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// NamedSelector is one entry of a selectors file.
type NamedSelector struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Definition  string `yaml:"definition"`
	Exclude     string `yaml:"exclude,omitempty"`
	Default     bool   `yaml:"default,omitempty"`
}

// Expr compiles the selector's definition and exclusion.
func (s NamedSelector) Expr() (Expr, error) {
	return Compile(s.Definition, s.Exclude)
}

// File is the parsed form of a selectors.yml file:
//
//	selectors:
//	  - name: nightly
//	    definition: "tag:nightly"
//	    exclude: "tag:slow"
//	    default: true
type File struct {
	Selectors []NamedSelector `yaml:"selectors"`
}

// LoadFile reads and validates a selectors file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading selectors file: %w", err)
	}
	f, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ParseFile decodes and validates selectors file content. Names must be
// unique, at most one selector may be the default, and every definition
// must parse.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("decoding selectors: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Selectors))
	defaultName := ""
	for _, s := range f.Selectors {
		if s.Name == "" {
			return nil, fmt.Errorf("selector without a name")
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("selector %q defined more than once", s.Name)
		}
		seen[s.Name] = struct{}{}
		if strings.TrimSpace(s.Definition) == "" {
			return nil, fmt.Errorf("selector %q has an empty definition", s.Name)
		}

		if s.Default {
			if defaultName != "" {
				return nil, fmt.Errorf("selectors %q and %q are both marked default", defaultName, s.Name)
			}
			defaultName = s.Name
		}
		if _, err := s.Expr(); err != nil {
			return nil, fmt.Errorf("selector %q: %w", s.Name, err)
		}
	}
	return &f, nil
}

// Lookup returns the selector called name.
func (f *File) Lookup(name string) (NamedSelector, bool) {
	for _, s := range f.Selectors {
		if s.Name == name {
			return s, true
		}
	}
	return NamedSelector{}, false
}

// Default returns the selector marked default, if any.
func (f *File) Default() (NamedSelector, bool) {
	for _, s := range f.Selectors {
		if s.Default {
			return s, true
		}
	}
	return NamedSelector{}, false
}
