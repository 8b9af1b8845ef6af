// internal/nodeid/address.go
package nodeid

import "strings"

// String serializes the Address into its canonical `package.name` form.
func (a Address) String() string {
	if a.Package == "" {
		return a.Name
	}
	var sb strings.Builder
	sb.Grow(len(a.Package) + len(a.Name) + 1)
	sb.WriteString(a.Package)
	sb.WriteByte('.')
	sb.WriteString(a.Name)
	return sb.String()
}
