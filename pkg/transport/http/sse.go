package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rechner-dev/rechner/pkg/api"
	"github.com/rechner-dev/rechner/pkg/transport"
)

// Event type names sent on the session event stream.
const (
	eventSnapshot = "session.snapshot"
	eventUpdated  = "session.updated"
	eventDeleted  = "session.deleted"
)

// handleEvents handles GET /v1/sessions/{id}/events. It streams session
// state snapshots as Server-Sent Events: an initial session.snapshot,
// then session.updated after each key press, and session.deleted when
// the session goes away. The stream ends when the client disconnects or
// the session is deleted.
func (a *Adapter) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		transport.WriteAPIError(w, api.NewServerError("streaming not supported by this connection"))
		return
	}

	// Subscribe before taking the initial snapshot so no update between
	// the two is lost.
	updates, err := a.service.Watch(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, id, err)
		return
	}

	initial, err := a.service.GetSession(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, id, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeSSEEvent(w, eventSnapshot, initial); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, open := <-updates:
			if !open {
				// Session deleted (or manager shut down).
				writeSSEEvent(w, eventDeleted, map[string]string{"id": id})
				flusher.Flush()
				return
			}
			if err := writeSSEEvent(w, eventUpdated, &snap); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes one event in SSE wire format:
//
//	event: session.updated
//	data: {...}
//
// followed by a blank line.
func writeSSEEvent(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
