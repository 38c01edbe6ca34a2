// Package noop provides an authenticator that abstains from every
// request. Combined with AuthChain.DefaultDecision == Yes it yields
// open access for development deployments.
package noop

import (
	"context"
	"net/http"

	"github.com/rechner-dev/rechner/pkg/auth"
)

// Authenticator always abstains.
type Authenticator struct{}

// New creates a no-op authenticator.
func New() *Authenticator {
	return &Authenticator{}
}

// Authenticate always returns Abstain.
func (a *Authenticator) Authenticate(_ context.Context, _ *http.Request) auth.AuthResult {
	return auth.AuthResult{Decision: auth.Abstain}
}
