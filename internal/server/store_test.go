package server

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comigor/atelier-go/internal/api"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateSession_TitleTruncation(t *testing.T) {
	store := newTestStore(t)

	short, err := store.CreateSession("a red fox")
	require.NoError(t, err)
	long, err := store.CreateSession("a very detailed painting of a red fox in the snow")
	require.NoError(t, err)

	sessions, err := store.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, short, sessions[0].ID)
	require.Equal(t, "a red fox", sessions[0].Title)
	require.Equal(t, long, sessions[1].ID)
	require.Equal(t, "a very detailed painting of a ...", sessions[1].Title)
}

func TestGetSession_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	id, err := store.CreateSession("a cat")
	require.NoError(t, err)

	require.NoError(t, store.AppendMessage(id, api.Message{ID: "u1", Sender: api.SenderUser, Text: "a cat"}))
	require.NoError(t, store.AppendMessage(id, api.Message{ID: "b1", Sender: api.SenderBot, ImageURL: "/static/generated/x.png"}))

	record, err := store.GetSession(id)
	require.NoError(t, err)
	require.Equal(t, "a cat", record.Title)
	require.Len(t, record.Messages, 2)
	require.Equal(t, "u1", record.Messages[0].ID)
	require.Equal(t, "b1", record.Messages[1].ID)

	_, err = store.GetSession("nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	store := newTestStore(t)
	id, err := store.CreateSession("a cat")
	require.NoError(t, err)
	require.NoError(t, store.AppendMessage(id, api.Message{ID: "b1", Sender: api.SenderBot, ImageURL: "/img.png"}))

	require.NoError(t, store.UpdateStatus("b1", api.StatusLike))
	record, err := store.GetSession(id)
	require.NoError(t, err)
	require.Equal(t, api.StatusLike, record.Messages[0].Status)

	require.ErrorIs(t, store.UpdateStatus("nope", api.StatusLike), ErrNotFound)
}

func TestFindPrompt_PrecedingUserMessage(t *testing.T) {
	store := newTestStore(t)
	id, err := store.CreateSession("a cat")
	require.NoError(t, err)
	require.NoError(t, store.AppendMessage(id, api.Message{ID: "u1", Sender: api.SenderUser, Text: "a cat"}))
	require.NoError(t, store.AppendMessage(id, api.Message{ID: "b1", Sender: api.SenderBot, Text: "caption", ImageURL: "/img.png"}))

	sessionID, prompt, err := store.FindPrompt("b1")
	require.NoError(t, err)
	require.Equal(t, id, sessionID)
	require.Equal(t, "a cat", prompt)

	// No preceding user message: fall back to the message's own text.
	_, prompt, err = store.FindPrompt("u1")
	require.NoError(t, err)
	require.Equal(t, "a cat", prompt)

	_, _, err = store.FindPrompt("nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAllPrompts_JoinsUserMessages(t *testing.T) {
	store := newTestStore(t)
	id, err := store.CreateSession("a cat")
	require.NoError(t, err)
	require.NoError(t, store.AppendMessage(id, api.Message{ID: "u1", Sender: api.SenderUser, Text: "a cat"}))
	require.NoError(t, store.AppendMessage(id, api.Message{ID: "b1", Sender: api.SenderBot, Text: "done"}))
	require.NoError(t, store.AppendMessage(id, api.Message{ID: "u2", Sender: api.SenderUser, Text: "wearing a hat"}))

	prompts, err := store.AllPrompts(id)
	require.NoError(t, err)
	require.Equal(t, "a cat. wearing a hat", prompts)
}
