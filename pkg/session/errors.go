package session

import "errors"

// Sentinel errors returned by the Manager.
var (
	// ErrNotFound indicates the session does not exist or is not
	// visible to the calling owner.
	ErrNotFound = errors.New("session not found")
)
