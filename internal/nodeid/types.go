// internal/nodeid/types.go
package nodeid

// Address is the structured representation of a unique node identifier.
type Address struct {
	Package string
	Name    string
}

// New returns the address of name inside pkg.
func New(pkg, name string) Address {
	return Address{Package: pkg, Name: name}
}
