package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comigor/atelier-go/internal/api"
)

// mockTransport mirrors the Transport interface with overridable funcs.
type mockTransport struct {
	ListSessionsFunc func(ctx context.Context) ([]api.SessionSummary, error)
	GetSessionFunc   func(ctx context.Context, id string) (*api.SessionRecord, error)
	GenerateFunc     func(ctx context.Context, prompt, sessionID string) (*api.GenerateResult, error)
	UpdateStatusFunc func(ctx context.Context, messageID, status string) error
	RegenerateFunc   func(ctx context.Context, messageID string) (*api.RegenerateResult, error)
}

func (m *mockTransport) ListSessions(ctx context.Context) ([]api.SessionSummary, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []api.SessionSummary{}, nil
}

func (m *mockTransport) GetSession(ctx context.Context, id string) (*api.SessionRecord, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, id)
	}
	return &api.SessionRecord{}, nil
}

func (m *mockTransport) Generate(ctx context.Context, prompt, sessionID string) (*api.GenerateResult, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, sessionID)
	}
	return &api.GenerateResult{SessionID: "s1", MessageID: "m1", ImageURL: "/img/1.png"}, nil
}

func (m *mockTransport) UpdateStatus(ctx context.Context, messageID, status string) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, messageID, status)
	}
	return nil
}

func (m *mockTransport) Regenerate(ctx context.Context, messageID string) (*api.RegenerateResult, error) {
	if m.RegenerateFunc != nil {
		return m.RegenerateFunc(ctx, messageID)
	}
	return &api.RegenerateResult{MessageID: "m9", ImageURL: "/img/9.png"}, nil
}

func newPipeline(transport Transport) (*Orchestrator, *SessionState, *Transcript, *Directory) {
	state := NewSessionState()
	transcript := NewTranscript()
	directory := NewDirectory(transport, state, transcript)
	return NewOrchestrator(transport, state, transcript, directory), state, transcript, directory
}

// Submit "a red fox" with no active session and check the full flow: echo,
// image message, follow-up, adopted session id, directory refresh.
func TestSubmit_EndToEnd(t *testing.T) {
	listCalls := 0
	transport := &mockTransport{
		GenerateFunc: func(ctx context.Context, prompt, sessionID string) (*api.GenerateResult, error) {
			require.Equal(t, "a red fox", prompt)
			require.Empty(t, sessionID)
			return &api.GenerateResult{SessionID: "s1", MessageID: "m1", ImageURL: "/img/1.png"}, nil
		},
		ListSessionsFunc: func(ctx context.Context) ([]api.SessionSummary, error) {
			listCalls++
			return []api.SessionSummary{{ID: "s1", Title: "a red fox"}}, nil
		},
	}
	orch, state, transcript, _ := newPipeline(transport)

	require.NoError(t, orch.Submit(context.Background(), "a red fox"))

	entries := transcript.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, SenderUser, entries[0].Message.Sender)
	require.Equal(t, "a red fox", entries[0].Message.Text)
	require.Equal(t, "m1", entries[1].Message.ID)
	require.Equal(t, "/img/1.png", entries[1].Message.ImageURL)
	require.Equal(t, FollowUpText, entries[2].Message.Text)

	id, ok := state.Get()
	require.True(t, ok)
	require.Equal(t, "s1", id)
	require.Equal(t, 1, listCalls, "directory must be refreshed once")
}

// The user message must be rendered before the network call is issued.
func TestSubmit_EchoPrecedesDispatch(t *testing.T) {
	var echoed bool
	transport := &mockTransport{}
	orch, _, transcript, _ := newPipeline(transport)
	transport.GenerateFunc = func(ctx context.Context, prompt, sessionID string) (*api.GenerateResult, error) {
		entries := transcript.Entries()
		echoed = len(entries) >= 1 && entries[0].Message.Text == prompt
		return &api.GenerateResult{SessionID: "s1", MessageID: "m1", ImageURL: "/img/1.png"}, nil
	}

	require.NoError(t, orch.Submit(context.Background(), "a red fox"))
	require.True(t, echoed)
}

// Whitespace-only input is a silent no-op: no transcript entry, no network
// call, no session state change.
func TestSubmit_WhitespaceNoOp(t *testing.T) {
	transport := &mockTransport{
		GenerateFunc: func(ctx context.Context, prompt, sessionID string) (*api.GenerateResult, error) {
			t.Fatal("generate must not be called")
			return nil, nil
		},
	}
	orch, state, transcript, _ := newPipeline(transport)

	require.NoError(t, orch.Submit(context.Background(), "   \n\t "))
	require.Zero(t, transcript.Len())
	_, ok := state.Get()
	require.False(t, ok)
}

// The server-returned session id always overwrites the cell, including when
// one was already set.
func TestSubmit_AdoptsReturnedSessionID(t *testing.T) {
	transport := &mockTransport{
		GenerateFunc: func(ctx context.Context, prompt, sessionID string) (*api.GenerateResult, error) {
			require.Equal(t, "old", sessionID)
			return &api.GenerateResult{SessionID: "new", MessageID: "m1", ImageURL: "/img/1.png"}, nil
		},
	}
	orch, state, _, _ := newPipeline(transport)
	state.Set("old")

	require.NoError(t, orch.Submit(context.Background(), "bigger"))
	id, _ := state.Get()
	require.Equal(t, "new", id)
}

// A failed generate leaves exactly one error notice where the placeholder
// was (transcript delta +2 including the echo, +1 relative to post-echo) and
// never mutates session state.
func TestSubmit_FailureLeavesErrorNotice(t *testing.T) {
	transport := &mockTransport{
		GenerateFunc: func(ctx context.Context, prompt, sessionID string) (*api.GenerateResult, error) {
			return nil, &api.TransportError{Op: "generate", Err: errors.New("boom")}
		},
		ListSessionsFunc: func(ctx context.Context) ([]api.SessionSummary, error) {
			t.Fatal("directory must not refresh on failure")
			return nil, nil
		},
	}
	orch, state, transcript, _ := newPipeline(transport)

	err := orch.Submit(context.Background(), "a red fox")
	require.Error(t, err)

	entries := transcript.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, EntryMessage, entries[0].Kind)
	require.Equal(t, EntryError, entries[1].Kind)
	require.NotEmpty(t, entries[1].Text)

	_, ok := state.Get()
	require.False(t, ok, "session state must be untouched on failure")
}

// Overlapping submissions own independent placeholders and may resolve in
// completion order.
func TestSubmit_OverlappingSubmissionsResolveIndependently(t *testing.T) {
	release := make(chan struct{})
	transport := &mockTransport{}
	orch, _, transcript, _ := newPipeline(transport)
	transport.GenerateFunc = func(ctx context.Context, prompt, sessionID string) (*api.GenerateResult, error) {
		if prompt == "first" {
			<-release // resolve after the second submission
			return &api.GenerateResult{SessionID: "s1", MessageID: "mA", ImageURL: "/img/a.png"}, nil
		}
		return &api.GenerateResult{SessionID: "s1", MessageID: "mB", ImageURL: "/img/b.png"}, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		require.NoError(t, orch.Submit(context.Background(), "first"))
	}()

	require.NoError(t, orch.Submit(context.Background(), "second"))
	close(release)
	<-done

	var loading, errs int
	ids := map[string]bool{}
	for _, e := range transcript.Entries() {
		switch e.Kind {
		case EntryLoading:
			loading++
		case EntryError:
			errs++
		case EntryMessage:
			if e.Message.ID != "" {
				ids[e.Message.ID] = true
			}
		}
	}
	require.Zero(t, loading, "no placeholder may survive")
	require.Zero(t, errs)
	require.True(t, ids["mA"])
	require.True(t, ids["mB"])
}

// A submission resolving after a session switch still writes its session id
// into the cell and appends to the visible transcript (no crash, no drop).
func TestSubmit_ResolutionAfterSessionSwitch(t *testing.T) {
	inFlight := make(chan struct{})
	release := make(chan struct{})
	transport := &mockTransport{
		GenerateFunc: func(ctx context.Context, prompt, sessionID string) (*api.GenerateResult, error) {
			close(inFlight)
			<-release
			return &api.GenerateResult{SessionID: "s1", MessageID: "m1", ImageURL: "/img/1.png"}, nil
		},
		GetSessionFunc: func(ctx context.Context, id string) (*api.SessionRecord, error) {
			return &api.SessionRecord{Messages: []Message{{Sender: SenderBot, Text: "old chat"}}}, nil
		},
	}
	orch, state, transcript, directory := newPipeline(transport)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = orch.Submit(context.Background(), "a red fox")
	}()

	<-inFlight
	directory.Open(context.Background(), "s2")
	close(release)
	<-done

	id, _ := state.Get()
	require.Equal(t, "s1", id, "in-flight resolution still writes its session id")

	var sawImage bool
	for _, e := range transcript.Entries() {
		if e.Kind == EntryMessage && e.Message.ID == "m1" {
			sawImage = true
		}
	}
	require.True(t, sawImage, "result appends to whatever transcript is displayed")
}

// Regeneration success appends exactly two messages and does not alter the
// session cell or the directory.
func TestRegenerate_AppendsTwoMessages(t *testing.T) {
	transport := &mockTransport{
		RegenerateFunc: func(ctx context.Context, messageID string) (*api.RegenerateResult, error) {
			require.Equal(t, "m1", messageID)
			return &api.RegenerateResult{MessageID: "m9", ImageURL: "/img/9.png"}, nil
		},
		ListSessionsFunc: func(ctx context.Context) ([]api.SessionSummary, error) {
			t.Fatal("regenerate must not refresh the directory")
			return nil, nil
		},
	}
	orch, state, transcript, _ := newPipeline(transport)
	state.Set("s1")
	before := transcript.Len()

	require.NoError(t, orch.Regenerate(context.Background(), "m1"))

	entries := transcript.Entries()
	require.Len(t, entries, before+2)
	require.Equal(t, "m9", entries[len(entries)-2].Message.ID)
	require.Equal(t, FollowUpText, entries[len(entries)-1].Message.Text)

	id, _ := state.Get()
	require.Equal(t, "s1", id)
}

func TestRegenerate_FailureLeavesErrorNotice(t *testing.T) {
	transport := &mockTransport{
		RegenerateFunc: func(ctx context.Context, messageID string) (*api.RegenerateResult, error) {
			return nil, &api.TransportError{Op: "regenerate", Err: errors.New("down")}
		},
	}
	orch, _, transcript, _ := newPipeline(transport)

	require.Error(t, orch.Regenerate(context.Background(), "m1"))
	entries := transcript.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, EntryError, entries[0].Kind)
}

// The feedback highlight is applied only after the backend acknowledges.
func TestFeedback_HighlightAfterAck(t *testing.T) {
	transport := &mockTransport{}
	orch, _, transcript, _ := newPipeline(transport)
	transcript.Append(Message{ID: "m1", Sender: SenderBot, ImageURL: "/img/1.png"})
	transport.UpdateStatusFunc = func(ctx context.Context, messageID, status string) error {
		entries := transcript.Entries()
		require.Empty(t, entries[0].Message.Status, "no optimistic toggle")
		return nil
	}

	require.NoError(t, orch.Feedback(context.Background(), "m1", api.StatusLike))
	require.Equal(t, api.StatusLike, transcript.Entries()[0].Message.Status)
}

func TestFeedback_FailureLeavesStatusUnchanged(t *testing.T) {
	transport := &mockTransport{
		UpdateStatusFunc: func(ctx context.Context, messageID, status string) error {
			return &api.TransportError{Op: "update status", Err: errors.New("down")}
		},
	}
	orch, _, transcript, _ := newPipeline(transport)
	transcript.Append(Message{ID: "m1", Sender: SenderBot, ImageURL: "/img/1.png"})

	require.Error(t, orch.Feedback(context.Background(), "m1", api.StatusDislike))
	require.Empty(t, transcript.Entries()[0].Message.Status)
}

// Feedback toggling is last-write-wins; like and dislike are mutually
// exclusive on the same message.
func TestFeedback_Toggle(t *testing.T) {
	transport := &mockTransport{}
	orch, _, transcript, _ := newPipeline(transport)
	transcript.Append(Message{ID: "m1", Sender: SenderBot, ImageURL: "/img/1.png"})

	require.NoError(t, orch.Feedback(context.Background(), "m1", api.StatusLike))
	require.NoError(t, orch.Feedback(context.Background(), "m1", api.StatusDislike))
	require.Equal(t, api.StatusDislike, transcript.Entries()[0].Message.Status)
}

func TestDispatch_RoutesCommands(t *testing.T) {
	transport := &mockTransport{}
	orch, state, transcript, _ := newPipeline(transport)

	require.NoError(t, orch.Dispatch(context.Background(), SubmitCommand{Input: "a red fox"}))
	require.Equal(t, 3, transcript.Len())

	require.NoError(t, orch.Dispatch(context.Background(), NewSessionCommand{}))
	require.Equal(t, 1, transcript.Len())
	_, ok := state.Get()
	require.False(t, ok)
}
