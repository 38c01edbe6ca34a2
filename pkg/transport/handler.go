package transport

import (
	"context"

	"github.com/rechner-dev/rechner/pkg/api"
)

// KeyPresser handles a single key press against a session. It is the
// hot path of the service and the unit that middleware wraps.
type KeyPresser interface {
	PressKey(ctx context.Context, sessionID string, key api.KeyPress) (*api.Session, error)
}

// KeyPresserFunc adapts a function to the KeyPresser interface.
type KeyPresserFunc func(ctx context.Context, sessionID string, key api.KeyPress) (*api.Session, error)

// PressKey implements KeyPresser.
func (f KeyPresserFunc) PressKey(ctx context.Context, sessionID string, key api.KeyPress) (*api.Session, error) {
	return f(ctx, sessionID, key)
}

// SessionService is the full contract the HTTP adapter serves.
// pkg/session implements it.
type SessionService interface {
	KeyPresser

	CreateSession(ctx context.Context) (*api.Session, error)
	GetSession(ctx context.Context, id string) (*api.Session, error)
	ListSessions(ctx context.Context, opts ListOptions) (*api.SessionList, error)
	DeleteSession(ctx context.Context, id string) error

	History(ctx context.Context, id string) ([]api.HistoryEntry, error)
	ClearHistory(ctx context.Context, id string) error

	// Watch returns a channel of state snapshots emitted after each
	// mutation of the session, for subscribe/notify presentation
	// layers. The channel is closed when ctx is cancelled or the
	// session is deleted.
	Watch(ctx context.Context, id string) (<-chan api.Session, error)
}

// ListOptions carries cursor pagination parameters for session listing.
type ListOptions struct {
	After  string
	Before string
	Limit  int
	Order  string // "asc" or "desc" by creation time; default "desc"
}
