// Package transport defines the contract between the HTTP surface
// and the session layer: the SessionService interface, key-press
// middleware (recovery, request ID, logging), and the
// mapping from structured API errors to HTTP responses.
package transport
