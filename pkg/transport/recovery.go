package transport

import (
	"context"
	"fmt"

	"github.com/rechner-dev/rechner/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to server error responses. The server continues to
// accept new requests after a panic is recovered.
func Recovery() Middleware {
	return func(next KeyPresser) KeyPresser {
		return KeyPresserFunc(func(ctx context.Context, sessionID string, key api.KeyPress) (s *api.Session, retErr error) {
			defer func() {
				if r := recover(); r != nil {
					s = nil
					retErr = api.NewServerError(fmt.Sprintf("internal server error: %v", r))
				}
			}()
			return next.PressKey(ctx, sessionID, key)
		})
	}
}
