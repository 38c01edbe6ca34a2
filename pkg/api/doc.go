// Package api defines the wire types for the rechner calculator
// service: session snapshots, key presses, history entries, and the
// structured error format shared by all surfaces.
package api
