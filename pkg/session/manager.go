package session

import (
	"container/list"
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rechner-dev/rechner/pkg/api"
	"github.com/rechner-dev/rechner/pkg/calc"
	"github.com/rechner-dev/rechner/pkg/debug"
	"github.com/rechner-dev/rechner/pkg/observability"
	"github.com/rechner-dev/rechner/pkg/transport"
)

const (
	// DefaultMaxSize caps the number of live sessions unless overridden.
	DefaultMaxSize = 1000

	defaultListLimit = 20
	maxListLimit     = 100

	// watchBuffer is the per-watcher channel capacity. Slow consumers
	// miss intermediate snapshots rather than block key presses.
	watchBuffer = 8
)

// Options configures a Manager.
type Options struct {
	// MaxSize is the maximum number of live sessions. When the limit is
	// reached, the least recently used session is evicted. Zero means
	// DefaultMaxSize.
	MaxSize int

	// HistoryLimit is passed through to each session's engine.
	// Zero means the engine default.
	HistoryLimit int

	Logger *slog.Logger
}

// entry is one live session plus its bookkeeping.
type entry struct {
	id        string
	owner     string
	createdAt time.Time
	engine    *calc.Engine
	lruElem   *list.Element
	watchers  map[chan api.Session]struct{}
}

// Manager holds calculator sessions in memory with LRU eviction. It
// implements transport.SessionService. All operations are safe for
// concurrent use.
//
// When the request context carries an owner (set by the auth
// middleware), sessions are scoped to that owner: each owner sees only
// its own sessions, and lookups across owners report not-found.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	lru      *list.List // front = most recently used, values are *entry
	maxSize  int

	historyLimit int
	logger       *slog.Logger
}

// NewManager creates an empty session manager.
func NewManager(opts Options) *Manager {
	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions:     make(map[string]*entry),
		lru:          list.New(),
		maxSize:      maxSize,
		historyLimit: opts.HistoryLimit,
		logger:       logger,
	}
}

var _ transport.SessionService = (*Manager)(nil)

// CreateSession starts a new calculator session in the cleared state.
func (m *Manager) CreateSession(ctx context.Context) (*api.Session, error) {
	id := api.NewSessionID()
	e := &entry{
		id:        id,
		owner:     GetOwner(ctx),
		createdAt: time.Now(),
		engine:    calc.New(calc.Config{HistoryLimit: m.historyLimit}),
		watchers:  make(map[chan api.Session]struct{}),
	}

	m.mu.Lock()
	for len(m.sessions) >= m.maxSize {
		m.evictOldestLocked()
	}
	m.sessions[id] = e
	e.lruElem = m.lru.PushFront(e)
	m.mu.Unlock()

	observability.SessionsCreatedTotal.Inc()
	observability.SessionsActive.Inc()
	debug.Log("session", "session created", "session_id", id, "owner", e.owner)

	return snapshot(e), nil
}

// GetSession returns the current state of a session.
func (m *Manager) GetSession(ctx context.Context, id string) (*api.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, err := m.lookupLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	return snapshot(e), nil
}

// ListSessions returns sessions visible to the caller, ordered by
// creation time, with cursor pagination.
func (m *Manager) ListSessions(ctx context.Context, opts transport.ListOptions) (*api.SessionList, error) {
	owner := GetOwner(ctx)

	m.mu.RLock()
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		if e.owner == owner {
			entries = append(entries, e)
		}
	}
	m.mu.RUnlock()

	ascending := opts.Order == "asc"
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].createdAt.Equal(entries[j].createdAt) {
			if ascending {
				return entries[i].createdAt.Before(entries[j].createdAt)
			}
			return entries[i].createdAt.After(entries[j].createdAt)
		}
		if ascending {
			return entries[i].id < entries[j].id
		}
		return entries[i].id > entries[j].id
	})

	// Cursors reference session IDs within the sorted order.
	start, end := 0, len(entries)
	if opts.After != "" {
		for i, e := range entries {
			if e.id == opts.After {
				start = i + 1
				break
			}
		}
	}
	if opts.Before != "" {
		for i, e := range entries {
			if e.id == opts.Before {
				end = i
				break
			}
		}
	}
	if start > end {
		start = end
	}
	window := entries[start:end]

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	hasMore := len(window) > limit
	if hasMore {
		window = window[:limit]
	}

	listResp := &api.SessionList{
		Object:  "list",
		Data:    make([]*api.Session, 0, len(window)),
		HasMore: hasMore,
	}
	m.mu.RLock()
	for _, e := range window {
		listResp.Data = append(listResp.Data, snapshot(e))
	}
	m.mu.RUnlock()
	if len(listResp.Data) > 0 {
		listResp.FirstID = listResp.Data[0].ID
		listResp.LastID = listResp.Data[len(listResp.Data)-1].ID
	}
	return listResp, nil
}

// DeleteSession removes a session and closes its watchers.
func (m *Manager) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	e, err := m.lookupLocked(ctx, id)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.removeLocked(e)
	m.mu.Unlock()

	observability.SessionsActive.Dec()
	debug.Log("session", "session deleted", "session_id", id)
	return nil
}

// PressKey applies a single key press to a session and returns the
// resulting state snapshot.
func (m *Manager) PressKey(ctx context.Context, id string, key api.KeyPress) (*api.Session, error) {
	if apiErr := key.Validate(); apiErr != nil {
		return nil, apiErr
	}

	m.mu.Lock()
	e, err := m.lookupLocked(ctx, id)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.lru.MoveToFront(e.lruElem)

	start := time.Now()
	pressErr := applyKey(e.engine, key)
	if pressErr == nil {
		observability.KeypressesTotal.WithLabelValues(string(key.Kind)).Inc()
		if key.Kind == api.KeyEquals {
			outcome := "ok"
			if e.engine.Display() == calc.ErrorDisplay {
				outcome = "error"
			}
			observability.EvaluationsTotal.WithLabelValues(outcome).Inc()
		}
	}
	snap := snapshot(e)
	m.mu.Unlock()

	observability.PressDuration.Observe(time.Since(start).Seconds())

	if pressErr != nil {
		return nil, pressErr
	}

	m.notify(e, snap)
	debug.Trace("session", "key applied",
		"session_id", id, "kind", string(key.Kind), "display", snap.Display)
	return snap, nil
}

// History returns the session's recorded calculations, newest first.
func (m *Manager) History(ctx context.Context, id string) ([]api.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, err := m.lookupLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	entries := e.engine.History()
	out := make([]api.HistoryEntry, len(entries))
	for i, he := range entries {
		out[i] = api.HistoryEntry{Equation: he.Equation, Result: he.Result}
	}
	return out, nil
}

// ClearHistory drops a session's recorded calculations. The display
// and pending equation are untouched.
func (m *Manager) ClearHistory(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookupLocked(ctx, id)
	if err != nil {
		return err
	}
	e.engine.ClearHistory()
	return nil
}

// Watch subscribes to state snapshots of a session. A snapshot is sent
// after every successful key press. The channel is closed when the
// context is cancelled or the session is deleted. Slow receivers skip
// intermediate snapshots.
func (m *Manager) Watch(ctx context.Context, id string) (<-chan api.Session, error) {
	m.mu.Lock()
	e, err := m.lookupLocked(ctx, id)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	ch := make(chan api.Session, watchBuffer)
	e.watchers[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		if _, ok := e.watchers[ch]; ok {
			delete(e.watchers, ch)
			close(ch)
		}
		m.mu.Unlock()
	}()

	return ch, nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// HealthCheck reports whether the manager can serve requests.
func (m *Manager) HealthCheck(ctx context.Context) error {
	return nil
}

// Close removes all sessions and closes all watchers.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.sessions {
		for ch := range e.watchers {
			close(ch)
		}
		e.watchers = nil
	}
	observability.SessionsActive.Sub(float64(len(m.sessions)))
	m.sessions = make(map[string]*entry)
	m.lru.Init()
	return nil
}

// lookupLocked finds a session visible to the caller. The manager lock
// (read or write) must be held.
func (m *Manager) lookupLocked(ctx context.Context, id string) (*entry, error) {
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Cross-owner access is indistinguishable from absence.
	if e.owner != GetOwner(ctx) {
		return nil, ErrNotFound
	}
	return e, nil
}

// removeLocked unlinks an entry and closes its watchers. The write
// lock must be held.
func (m *Manager) removeLocked(e *entry) {
	delete(m.sessions, e.id)
	m.lru.Remove(e.lruElem)
	for ch := range e.watchers {
		close(ch)
	}
	e.watchers = nil
}

// evictOldestLocked removes the least recently used session. The write
// lock must be held.
func (m *Manager) evictOldestLocked() {
	back := m.lru.Back()
	if back == nil {
		return
	}
	e := back.Value.(*entry)
	m.removeLocked(e)
	observability.SessionsActive.Dec()
	observability.SessionsEvictedTotal.Inc()
	m.logger.Warn("evicted session at capacity", "session_id", e.id)
}

// notify fans a snapshot out to the session's watchers without
// blocking. Full watcher channels drop the snapshot.
func (m *Manager) notify(e *entry, snap *api.Session) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for ch := range e.watchers {
		select {
		case ch <- *snap:
		default:
		}
	}
}

// applyKey dispatches a validated key press to the engine.
func applyKey(engine *calc.Engine, key api.KeyPress) error {
	switch key.Kind {
	case api.KeyDigit:
		if err := engine.InputDigit(rune(key.Value[0])); err != nil {
			return api.NewInvalidRequestError("value", err.Error())
		}
	case api.KeyOperator:
		if err := engine.InputOperator(key.Value); err != nil {
			return api.NewInvalidRequestError("value", err.Error())
		}
	case api.KeyEquals:
		engine.Equals()
	case api.KeyPercent:
		engine.Percent()
	case api.KeyClear:
		engine.Clear()
	case api.KeyBackspace:
		engine.Backspace()
	default:
		return api.NewInvalidRequestError("kind", "unknown key kind "+string(key.Kind))
	}
	return nil
}

// snapshot converts an entry to its wire representation.
func snapshot(e *entry) *api.Session {
	return &api.Session{
		ID:        e.id,
		Object:    "session",
		Display:   e.engine.Display(),
		Equation:  e.engine.Equation(),
		Finished:  e.engine.Finished(),
		CreatedAt: e.createdAt.Unix(),
	}
}
