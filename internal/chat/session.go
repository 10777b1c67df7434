package chat

import "sync"

// SessionState is the single shared cell holding the identity of the active
// conversation. An empty id means "the next generation request starts a new
// session". The cell is constructed once and passed to the orchestrator and
// directory explicitly; there is no package-level instance.
//
// The epoch counter increments whenever the transcript identity changes
// (session switch or new-session reset). In-flight submissions capture the
// epoch at dispatch time; a resolution arriving after a switch still lands,
// but the mismatch is observable to callers that want to log it.
type SessionState struct {
	mu    sync.Mutex
	id    string
	epoch uint64
}

// NewSessionState returns a cell with no active session.
func NewSessionState() *SessionState {
	return &SessionState{}
}

// Set records id as the active session. Setting the id that is already
// active is idempotent and does not advance the epoch.
func (s *SessionState) Set(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id != id {
		s.epoch++
	}
	s.id = id
}

// Get returns the active session id and whether one is set.
func (s *SessionState) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.id != ""
}

// Clear resets the cell to "no session" and advances the epoch.
func (s *SessionState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
	s.epoch++
}

// Epoch returns the current epoch counter.
func (s *SessionState) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Adopt overwrites the active session with the id returned by a generation
// call that was dispatched at the given epoch. The write always happens
// (no silent drop); the return value reports whether the session identity
// changed underneath the caller while the request was in flight.
func (s *SessionState) Adopt(id string, dispatchEpoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	stale := s.epoch != dispatchEpoch
	if s.id != id {
		s.epoch++
	}
	s.id = id
	return stale
}
