// Package pkgcache deduplicates external package fetches within one
// resolution pass.
//
// A Cache is keyed by (source, revision). The first GetOrFetch for a key
// runs the caller's fetch function; concurrent callers for the same key wait
// for that one fetch and share its result or its error. Successful results
// are kept for the lifetime of the Cache; failures are not, so a later call
// may try again.
//
// The cache only deduplicates. Validation of a fetched package belongs to
// the caller and runs after GetOrFetch returns, so a cache hit observes the
// same checks as the call that filled the entry.
//
// Construct one Cache per resolution pass and drop it afterwards.
package pkgcache
