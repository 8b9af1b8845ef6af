/*
Package selector parses and evaluates node selection expressions against the
project graph.

# Grammar

	expr   := union
	union  := inter { inter }            whitespace separated
	inter  := unary { "," unary }
	unary  := "!" unary | graph
	graph  := "@" atom
	        | [ [N] "+" ] atom [ "+" [N] ]
	atom   := "(" expr ")" | method ":" value | value

Intersection binds tighter than union; both associate left to right and
parentheses override. `+x` selects x and all its ancestors, `2+x` x and its
ancestors up to two hops away, `x+` and `x+3` are the downstream
counterparts. `@x` selects x, its descendants and every ancestor of those.
Depth literals and `+` must touch the atom they modify: `a +b` is the union
of `a` and `+b`.

# Methods

A leaf `method:value` is looked up in a Methods registry. The built-in
methods are tag, path, package, name, id, resource_type and config.<key>. A
bare value is a path when it contains a slash, a qualified id when it
contains a dot, and a name otherwise.

A path value selects a file or everything beneath a directory. Path globs
follow path.Match, where `*` does not cross a slash, and a glob that matches
a directory selects everything beneath it: `path:models/*` covers
`models/staging/sub/a.hcl` as well as `models/a.hcl`.

# Disabled Nodes

Disabled nodes drop out of every result unless an exact-name leaf (an `id:`
leaf or a bare name without wildcards) put them there. That mark follows the
set algebra: a union keeps it, an intersection keeps it for members that
survive every term, and a negation or the right side of an exclusion never
grants it. Graph operators keep it only for the seed itself, so `+legacy`
keeps a disabled `legacy` but not its disabled ancestors.
*/
package selector
