package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rechner-dev/rechner/pkg/api"
	"github.com/rechner-dev/rechner/pkg/transport"
)

func press(t *testing.T, m *Manager, ctx context.Context, id string, keys ...api.KeyPress) *api.Session {
	t.Helper()
	var last *api.Session
	for _, k := range keys {
		snap, err := m.PressKey(ctx, id, k)
		if err != nil {
			t.Fatalf("PressKey(%v): %v", k, err)
		}
		last = snap
	}
	return last
}

func digit(d string) api.KeyPress    { return api.KeyPress{Kind: api.KeyDigit, Value: d} }
func operator(o string) api.KeyPress { return api.KeyPress{Kind: api.KeyOperator, Value: o} }
func equals() api.KeyPress           { return api.KeyPress{Kind: api.KeyEquals} }

func TestCreateSessionStartsCleared(t *testing.T) {
	m := NewManager(Options{})
	ctx := context.Background()

	sess, err := m.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if !strings.HasPrefix(sess.ID, "sess_") {
		t.Errorf("ID = %q, want sess_ prefix", sess.ID)
	}
	if sess.Object != "session" {
		t.Errorf("Object = %q, want session", sess.Object)
	}
	if sess.Display != "0" || sess.Equation != "" || sess.Finished {
		t.Errorf("new session not cleared: %+v", sess)
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
}

func TestPressKeyComputesResult(t *testing.T) {
	m := NewManager(Options{})
	ctx := context.Background()
	sess, _ := m.CreateSession(ctx)

	snap := press(t, m, ctx, sess.ID,
		digit("1"), digit("2"), operator("+"), digit("3"), equals())

	if snap.Display != "15" {
		t.Errorf("Display = %q, want 15", snap.Display)
	}
	if !snap.Finished {
		t.Error("Finished = false after equals")
	}
}

func TestPressKeyRejectsInvalidInput(t *testing.T) {
	m := NewManager(Options{})
	ctx := context.Background()
	sess, _ := m.CreateSession(ctx)

	_, err := m.PressKey(ctx, sess.ID, api.KeyPress{Kind: api.KeyDigit, Value: "x"})
	var apiErr *api.APIError
	if err == nil {
		t.Fatal("expected error for invalid digit")
	}
	if !asAPIError(err, &apiErr) || apiErr.Type != api.ErrorTypeInvalidRequest {
		t.Errorf("error = %v, want invalid_request APIError", err)
	}
}

func asAPIError(err error, target **api.APIError) bool {
	e, ok := err.(*api.APIError)
	if ok {
		*target = e
	}
	return ok
}

func TestPressKeyUnknownSession(t *testing.T) {
	m := NewManager(Options{})
	_, err := m.PressKey(context.Background(), "sess_aaaaaaaaaaaaaaaaaaaaaaaa", digit("1"))
	if err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHistoryAndClearHistory(t *testing.T) {
	m := NewManager(Options{})
	ctx := context.Background()
	sess, _ := m.CreateSession(ctx)

	press(t, m, ctx, sess.ID, digit("2"), operator("+"), digit("3"), equals())

	entries, err := m.History(ctx, sess.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 1 || entries[0].Equation != "2 + 3" || entries[0].Result != "5" {
		t.Errorf("history = %+v, want [{2 + 3, 5}]", entries)
	}

	if err := m.ClearHistory(ctx, sess.ID); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	entries, _ = m.History(ctx, sess.ID)
	if len(entries) != 0 {
		t.Errorf("history after clear = %+v, want empty", entries)
	}
}

func TestDeleteSession(t *testing.T) {
	m := NewManager(Options{})
	ctx := context.Background()
	sess, _ := m.CreateSession(ctx)

	if err := m.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := m.GetSession(ctx, sess.ID); err != ErrNotFound {
		t.Errorf("GetSession after delete = %v, want ErrNotFound", err)
	}
	if err := m.DeleteSession(ctx, sess.ID); err != ErrNotFound {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestOwnerScoping(t *testing.T) {
	m := NewManager(Options{})
	alice := SetOwner(context.Background(), "alice")
	bob := SetOwner(context.Background(), "bob")

	sess, _ := m.CreateSession(alice)

	if _, err := m.GetSession(alice, sess.ID); err != nil {
		t.Errorf("owner lookup failed: %v", err)
	}
	if _, err := m.GetSession(bob, sess.ID); err != ErrNotFound {
		t.Errorf("cross-owner lookup = %v, want ErrNotFound", err)
	}
	if err := m.DeleteSession(bob, sess.ID); err != ErrNotFound {
		t.Errorf("cross-owner delete = %v, want ErrNotFound", err)
	}

	list, _ := m.ListSessions(bob, transport.ListOptions{})
	if len(list.Data) != 0 {
		t.Errorf("bob sees %d sessions, want 0", len(list.Data))
	}
}

func TestLRUEvictionAtCapacity(t *testing.T) {
	m := NewManager(Options{MaxSize: 2})
	ctx := context.Background()

	first, _ := m.CreateSession(ctx)
	second, _ := m.CreateSession(ctx)

	// Touch the first session so the second becomes least recently used.
	press(t, m, ctx, first.ID, digit("1"))

	third, _ := m.CreateSession(ctx)

	if m.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", m.Count())
	}
	if _, err := m.GetSession(ctx, second.ID); err != ErrNotFound {
		t.Errorf("expected second session evicted, got %v", err)
	}
	for _, id := range []string{first.ID, third.ID} {
		if _, err := m.GetSession(ctx, id); err != nil {
			t.Errorf("session %s should survive eviction: %v", id, err)
		}
	}
}

func TestListSessionsPagination(t *testing.T) {
	m := NewManager(Options{})
	ctx := context.Background()

	var ids []string
	for range 5 {
		sess, _ := m.CreateSession(ctx)
		ids = append(ids, sess.ID)
		time.Sleep(time.Millisecond) // distinct creation times
	}

	list, err := m.ListSessions(ctx, transport.ListOptions{Limit: 2, Order: "desc"})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(list.Data) != 2 {
		t.Fatalf("len = %d, want 2", len(list.Data))
	}
	if !list.HasMore {
		t.Error("HasMore = false, want true")
	}
	if list.Data[0].ID != ids[4] || list.Data[1].ID != ids[3] {
		t.Errorf("desc order wrong: got %s, %s", list.Data[0].ID, list.Data[1].ID)
	}
	if list.FirstID != list.Data[0].ID || list.LastID != list.Data[1].ID {
		t.Errorf("cursor IDs wrong: first=%s last=%s", list.FirstID, list.LastID)
	}

	// Next page via the after cursor.
	next, _ := m.ListSessions(ctx, transport.ListOptions{Limit: 2, Order: "desc", After: list.LastID})
	if len(next.Data) != 2 || next.Data[0].ID != ids[2] {
		t.Errorf("after-cursor page wrong: %+v", next.Data)
	}

	// Ascending order starts from the oldest.
	asc, _ := m.ListSessions(ctx, transport.ListOptions{Limit: 1, Order: "asc"})
	if len(asc.Data) != 1 || asc.Data[0].ID != ids[0] {
		t.Errorf("asc order wrong: %+v", asc.Data)
	}
}

func TestWatchDeliversSnapshots(t *testing.T) {
	m := NewManager(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, _ := m.CreateSession(ctx)

	updates, err := m.Watch(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	press(t, m, ctx, sess.ID, digit("7"))

	select {
	case snap := <-updates:
		if snap.Display != "7" {
			t.Errorf("snapshot display = %q, want 7", snap.Display)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
	}
}

func TestWatchClosedOnDelete(t *testing.T) {
	m := NewManager(Options{})
	ctx := context.Background()
	sess, _ := m.CreateSession(ctx)

	updates, _ := m.Watch(ctx, sess.ID)
	m.DeleteSession(ctx, sess.ID)

	select {
	case _, open := <-updates:
		if open {
			t.Error("expected channel closed after delete")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after delete")
	}
}

func TestWatchClosedOnContextCancel(t *testing.T) {
	m := NewManager(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	sess, _ := m.CreateSession(ctx)

	updates, _ := m.Watch(ctx, sess.ID)
	cancel()

	select {
	case _, open := <-updates:
		if open {
			t.Error("expected channel closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
