// Package session manages calculator engine instances keyed by
// session ID. Sessions live in memory and are lost when the process
// restarts. LRU eviction bounds memory usage, owner scoping isolates
// authenticated callers from each other, and watch channels let
// presentation layers observe state snapshots after each mutation.
//
// The manager provides the locking boundary around pkg/calc engines,
// which are themselves strictly sequential.
package session
