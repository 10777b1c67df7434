package chat

import "sync"

// EntryKind discriminates transcript entries.
type EntryKind int

const (
	// EntryMessage is a rendered chat message.
	EntryMessage EntryKind = iota
	// EntryLoading is a transient loading placeholder owned by one pending
	// operation. It is removed on success or replaced by EntryError.
	EntryLoading
	// EntryError is an inline error notice left in place of a loading
	// placeholder when its operation failed.
	EntryError
)

// Entry is one visible unit of the transcript.
type Entry struct {
	Kind    EntryKind
	Message Message // valid when Kind == EntryMessage
	Text    string  // error text when Kind == EntryError
}

// Transcript is the ordered list of entries for the active session. Entries
// are appended in call order and never reordered; messages are immutable
// once appended and disappear only on a full replace (session switch or
// new-session reset).
//
// The mutex exists because pending operations resolve on their own
// goroutines while the UI reads entries to render. Each mutation is a single
// short critical section, matching the one-event-at-a-time model of the
// original client.
type Transcript struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds a message entry. A message with neither text nor image is a
// defensive no-op, not an error.
func (t *Transcript) Append(m Message) {
	if IsBlank(m) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, &Entry{Kind: EntryMessage, Message: m})
}

// Placeholder is a handle over one loading entry. Each pending operation
// owns its placeholder, so overlapping operations resolve independently.
type Placeholder struct {
	t     *Transcript
	entry *Entry
	done  bool
}

// AppendPlaceholder adds a loading entry and returns its handle.
func (t *Transcript) AppendPlaceholder() *Placeholder {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := &Entry{Kind: EntryLoading}
	t.entries = append(t.entries, e)
	return &Placeholder{t: t, entry: e}
}

// Resolve removes the placeholder from the transcript.
func (p *Placeholder) Resolve() {
	p.t.mu.Lock()
	defer p.t.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	for i, e := range p.t.entries {
		if e == p.entry {
			p.t.entries = append(p.t.entries[:i], p.t.entries[i+1:]...)
			return
		}
	}
}

// Fail replaces the placeholder in place with an inline error notice.
func (p *Placeholder) Fail(text string) {
	p.t.mu.Lock()
	defer p.t.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	p.entry.Kind = EntryError
	p.entry.Text = text
}

// SetStatus records feedback on the message with the given id, so the UI can
// highlight the pressed control. Like and dislike are mutually exclusive;
// the last applied status wins.
func (t *Transcript) SetStatus(messageID, status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		if e.Kind == EntryMessage && e.Message.ID == messageID {
			e.Message.Status = status
			return
		}
	}
}

// Replace discards all entries and renders the given messages in order.
func (t *Transcript) Replace(messages []Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
	for _, m := range messages {
		if IsBlank(m) {
			continue
		}
		t.entries = append(t.entries, &Entry{Kind: EntryMessage, Message: m})
	}
}

// Reset clears the transcript down to the single fixed greeting.
func (t *Transcript) Reset() {
	t.Replace([]Message{{Sender: SenderBot, Text: GreetingText}})
}

// Entries returns a snapshot of the current entries in order.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = *e
	}
	return out
}

// Len returns the number of visible entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
