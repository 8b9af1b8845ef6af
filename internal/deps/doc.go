// Package deps installs the external packages a project declares.
//
// An Installer walks the package requirements of the root project and of
// every installed package, fetching each distinct (source, revision) once
// through a fresh pkgcache.Cache. Validators run on every requirement after
// its package has been retrieved, whether the retrieval was a fetch or a
// cache hit.
package deps
