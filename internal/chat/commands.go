package chat

import (
	"context"
	"fmt"
)

// Command is a typed user action. The UI layer translates key presses into
// commands and hands them to Dispatch; the pipeline never reads input state
// back out of rendered structure.
type Command interface {
	isCommand()
}

// SubmitCommand submits the typed prompt.
type SubmitCommand struct {
	Input string
}

// RegenerateCommand requests a fresh image for an existing bot message.
type RegenerateCommand struct {
	MessageID string
}

// FeedbackCommand records like/dislike feedback for a message.
type FeedbackCommand struct {
	MessageID string
	Status    string
}

// OpenSessionCommand switches to a past conversation.
type OpenSessionCommand struct {
	ID string
}

// NewSessionCommand resets to a fresh conversation.
type NewSessionCommand struct{}

// RefreshDirectoryCommand reloads the sidebar listing.
type RefreshDirectoryCommand struct{}

func (SubmitCommand) isCommand()           {}
func (RegenerateCommand) isCommand()       {}
func (FeedbackCommand) isCommand()         {}
func (OpenSessionCommand) isCommand()      {}
func (NewSessionCommand) isCommand()       {}
func (RefreshDirectoryCommand) isCommand() {}

// Dispatch routes a command to its flow. Directory commands require the
// orchestrator to have been constructed with a directory.
func (o *Orchestrator) Dispatch(ctx context.Context, cmd Command) error {
	switch c := cmd.(type) {
	case SubmitCommand:
		return o.Submit(ctx, c.Input)
	case RegenerateCommand:
		return o.Regenerate(ctx, c.MessageID)
	case FeedbackCommand:
		return o.Feedback(ctx, c.MessageID, c.Status)
	case OpenSessionCommand:
		o.directory.Open(ctx, c.ID)
		return nil
	case NewSessionCommand:
		o.directory.StartNew()
		return nil
	case RefreshDirectoryCommand:
		return o.directory.Refresh(ctx)
	default:
		return fmt.Errorf("unknown command type %T", cmd)
	}
}
