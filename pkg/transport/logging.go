package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/rechner-dev/rechner/pkg/api"
)

// Logging returns middleware that emits structured log entries for each
// key press. The log entry includes the session ID, key kind, duration,
// request ID (from context), and whether the press succeeded or failed.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next KeyPresser) KeyPresser {
		return KeyPresserFunc(func(ctx context.Context, sessionID string, key api.KeyPress) (*api.Session, error) {
			start := time.Now()
			requestID := RequestIDFromContext(ctx)

			snapshot, err := next.PressKey(ctx, sessionID, key)

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("session_id", sessionID),
				slog.String("kind", string(key.Kind)),
				slog.Duration("duration", time.Since(start)),
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "key press failed", attrs...)
			} else {
				attrs = append(attrs, slog.String("display", snapshot.Display))
				logger.LogAttrs(ctx, slog.LevelInfo, "key press completed", attrs...)
			}

			return snapshot, err
		})
	}
}
