package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppend_OrderIsCallOrder(t *testing.T) {
	tr := NewTranscript()
	tr.Append(Message{Sender: SenderUser, Text: "one"})
	tr.Append(Message{Sender: SenderBot, Text: "two"})
	tr.Append(Message{Sender: SenderUser, Text: "three"})

	entries := tr.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, "one", entries[0].Message.Text)
	require.Equal(t, "two", entries[1].Message.Text)
	require.Equal(t, "three", entries[2].Message.Text)
}

// A message with neither text nor image appends nothing and is not an error.
func TestAppend_BlankMessageNoOp(t *testing.T) {
	tr := NewTranscript()
	tr.Append(Message{Sender: SenderBot})
	require.Zero(t, tr.Len())
}

func TestPlaceholder_ResolveRemoves(t *testing.T) {
	tr := NewTranscript()
	tr.Append(Message{Sender: SenderUser, Text: "hi"})
	p := tr.AppendPlaceholder()
	require.Equal(t, 2, tr.Len())

	p.Resolve()
	entries := tr.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, EntryMessage, entries[0].Kind)
}

func TestPlaceholder_FailReplacesInPlace(t *testing.T) {
	tr := NewTranscript()
	tr.Append(Message{Sender: SenderUser, Text: "hi"})
	p := tr.AppendPlaceholder()
	tr.Append(Message{Sender: SenderBot, Text: "later"})

	p.Fail("it broke")
	entries := tr.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, EntryError, entries[1].Kind)
	require.Equal(t, "it broke", entries[1].Text)
	require.Equal(t, "later", entries[2].Message.Text)
}

// Resolving twice, or failing after resolving, must not corrupt the list.
func TestPlaceholder_DoubleSettleIsNoOp(t *testing.T) {
	tr := NewTranscript()
	p := tr.AppendPlaceholder()
	p.Resolve()
	p.Resolve()
	p.Fail("late")
	require.Zero(t, tr.Len())
}

// Two placeholders settle independently regardless of order.
func TestPlaceholder_IndependentHandles(t *testing.T) {
	tr := NewTranscript()
	p1 := tr.AppendPlaceholder()
	p2 := tr.AppendPlaceholder()

	p2.Fail("second broke")
	p1.Resolve()

	entries := tr.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, EntryError, entries[0].Kind)
	require.Equal(t, "second broke", entries[0].Text)
}

func TestReplace_DiscardsEverything(t *testing.T) {
	tr := NewTranscript()
	tr.Append(Message{Sender: SenderUser, Text: "old"})
	tr.AppendPlaceholder()

	tr.Replace([]Message{
		{Sender: SenderUser, Text: "a"},
		{ID: "m1", Sender: SenderBot, ImageURL: "/img/1.png"},
	})

	entries := tr.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "a", entries[0].Message.Text)
	require.Equal(t, "m1", entries[1].Message.ID)
}

func TestReset_SingleGreeting(t *testing.T) {
	tr := NewTranscript()
	tr.Append(Message{Sender: SenderUser, Text: "old"})
	tr.Reset()

	entries := tr.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, GreetingText, entries[0].Message.Text)
	require.Equal(t, SenderBot, entries[0].Message.Sender)
}

func TestSetStatus_TargetsByID(t *testing.T) {
	tr := NewTranscript()
	tr.Append(Message{ID: "m1", Sender: SenderBot, ImageURL: "/img/1.png"})
	tr.Append(Message{ID: "m2", Sender: SenderBot, ImageURL: "/img/2.png"})

	tr.SetStatus("m2", "like")
	entries := tr.Entries()
	require.Empty(t, entries[0].Message.Status)
	require.Equal(t, "like", entries[1].Message.Status)
}
