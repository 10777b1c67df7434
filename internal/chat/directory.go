package chat

import (
	"context"
	"sync"

	"github.com/comigor/atelier-go/internal/api"
	"github.com/comigor/atelier-go/internal/logger"
)

// Directory is the sidebar list of past conversations. It owns the rendered
// ordering: the backend returns sessions in creation order and the sidebar
// shows the most recently created conversation first.
type Directory struct {
	transport  Transport
	state      *SessionState
	transcript *Transcript

	mu       sync.RWMutex
	sessions []api.SessionSummary

	notify func()
}

// NewDirectory returns an empty directory.
func NewDirectory(transport Transport, state *SessionState, transcript *Transcript) *Directory {
	return &Directory{
		transport:  transport,
		state:      state,
		transcript: transcript,
	}
}

// SetNotify registers a repaint hook.
func (d *Directory) SetNotify(fn func()) {
	d.notify = fn
}

func (d *Directory) changed() {
	if d.notify != nil {
		d.notify()
	}
}

// Refresh fetches the session list and rebuilds the directory in reverse of
// the returned order. On failure the previous listing stays visible; the
// error is logged by the caller.
func (d *Directory) Refresh(ctx context.Context) error {
	sessions, err := d.transport.ListSessions(ctx)
	if err != nil {
		return err
	}

	reversed := make([]api.SessionSummary, len(sessions))
	for i, s := range sessions {
		reversed[len(sessions)-1-i] = s
	}

	d.mu.Lock()
	d.sessions = reversed
	d.mu.Unlock()
	d.changed()
	return nil
}

// Items returns the sessions in display order (newest first).
func (d *Directory) Items() []api.SessionSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]api.SessionSummary, len(d.sessions))
	copy(out, d.sessions)
	return out
}

// Open loads the selected session: the transcript is fully replaced by the
// fetched messages in their returned order and the session cell switches to
// id. On failure the transcript is left exactly as it was (stale but
// visible) and the error is only logged.
func (d *Directory) Open(ctx context.Context, id string) {
	record, err := d.transport.GetSession(ctx, id)
	if err != nil {
		logger.L.Warn("failed to load session", "session_id", id, "error", err)
		return
	}
	d.state.Set(id)
	d.transcript.Replace(record.Messages)
	d.changed()
}

// StartNew resets the client to a fresh conversation: no backend call, the
// session cell cleared, and the transcript reduced to the single greeting.
// The session is created server-side only when the first generation request
// succeeds.
func (d *Directory) StartNew() {
	d.state.Clear()
	d.transcript.Reset()
	d.changed()
}
