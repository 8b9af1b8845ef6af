// Package progress turns scheduler transitions into something a person can
// follow: log lines, socket.io events for remote viewers, and a client that
// prints those events.
package progress
