// Package calc implements the calculator engine: a sequential state
// machine that accepts digit and operator input one token at a time,
// maintains a running textual equation, evaluates it left to right
// without operator precedence, and records completed calculations in
// a bounded history.
//
// The engine is not safe for concurrent use. Callers that share an
// Engine across goroutines must serialize access themselves (see
// pkg/session for a manager that does exactly that).
package calc
