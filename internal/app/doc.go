// Package app contains the core application logic. It wires the loader,
// package installer, graph builder, selector and scheduler into the run, ls
// and watch flows, decoupled from any specific entrypoint like a CLI.
package app
