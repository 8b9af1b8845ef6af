// internal/nodeid/doc.go

/*
Package nodeid provides the structured identifier of a node in the project
graph.

A node is addressed by its qualified name, `<package>.<name>`, where both
segments are identifiers: a letter or underscore followed by letters, digits
or underscores. The root project is a package like any other, so a model
`orders` in project `shop` is `shop.orders` and a model `date_spine` pulled
in from the `utils` package is `utils.date_spine`.

This package centralizes formatting, parsing and validation so the loader,
builder and selector agree on what a name is.
*/
package nodeid
