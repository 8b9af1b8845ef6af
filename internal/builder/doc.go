/*
Package builder turns raw node definitions into the immutable project graph.
It is the bridge between the format-agnostic project model (the 'config'
package) and everything that runs against the graph (selector, scheduler).

Graph construction is a multi-phase process:

 1. Registration: every raw definition becomes a *node.Node registered in a
    topologystore.Store under its qualified name `package.name`. A second
    definition with the same qualified name fails the build with
    ErrDuplicateName.

 2. Reference Resolution: each `depends_on` string is resolved to exactly one
    registered node. A qualified reference `pkg.name` must name that node
    exactly. A bare name prefers the referencing node's own package and
    otherwise falls back to a unique match across all packages. No match, or
    several matches outside the own package, fails with
    ErrUnresolvedReference.

 3. Edge Materialization: every resolved reference becomes an edge from the
    upstream node to the referencing node.

 4. Cycle Check: the frozen graph is walked with a three-colour DFS. A
    back-edge fails the build with ErrCycle, carrying the full cycle path.

Disabled nodes stay in the graph so references to them still resolve; the
selector decides whether they are picked.

External packages are installed before Build is called; the builder only ever
sees their already-loaded definitions.
*/
package builder
