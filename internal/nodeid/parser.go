// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierRegex matches a single name segment. \w and \d are ASCII-only in
// RE2, so unicode letters are rejected.
var identifierRegex = regexp.MustCompile(`^[^\d\W]\w*$`)

// ValidIdentifier reports whether s can be used as a package or node name.
func ValidIdentifier(s string) bool {
	return identifierRegex.MatchString(s)
}

// Parse creates an Address from its canonical `package.name` form.
func Parse(rawID string) (Address, error) {
	if rawID == "" {
		return Address{}, fmt.Errorf("identifier cannot be empty")
	}

	pkg, name, ok := strings.Cut(rawID, ".")
	if !ok {
		return Address{}, fmt.Errorf("identifier %q is not qualified: expected package.name", rawID)
	}
	if !ValidIdentifier(pkg) {
		return Address{}, fmt.Errorf("invalid package segment %q in %q", pkg, rawID)
	}
	if !ValidIdentifier(name) {
		return Address{}, fmt.Errorf("invalid name segment %q in %q", name, rawID)
	}
	return New(pkg, name), nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(rawID string) Address {
	a, err := Parse(rawID)
	if err != nil {
		panic(err)
	}
	return a
}
