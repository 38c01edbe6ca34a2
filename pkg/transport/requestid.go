package transport

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/rechner-dev/rechner/pkg/api"
)

// RequestID returns middleware that assigns a unique request ID to each
// key press. If the incoming request context already carries a request ID
// (set by the HTTP adapter from the X-Request-ID header), that value is
// used. Otherwise, a new unique ID is generated.
//
// The request ID is stored in the context and can be retrieved with
// RequestIDFromContext.
func RequestID() Middleware {
	return func(next KeyPresser) KeyPresser {
		return KeyPresserFunc(func(ctx context.Context, sessionID string, key api.KeyPress) (*api.Session, error) {
			id := RequestIDFromContext(ctx)
			if id == "" {
				id = generateRequestID()
				ctx = ContextWithRequestID(ctx, id)
			}
			return next.PressKey(ctx, sessionID, key)
		})
	}
}

// generateRequestID creates a new unique request ID as a hex string.
func generateRequestID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
