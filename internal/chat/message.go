// Package chat implements the client-side session and message pipeline: the
// transcript, the current-session cell, the submission orchestrator, and the
// session directory. Network access goes through the Transport interface so
// the whole pipeline is testable without a backend.
package chat

import "github.com/comigor/atelier-go/internal/api"

// Message is a single transcript message.
// This is an alias for api.Message to ensure type compatibility when folding
// backend responses into the transcript.
type Message = api.Message

// Sender constants, re-exported from api for convenience.
const (
	SenderUser = api.SenderUser
	SenderBot  = api.SenderBot
)

// Fixed product copy. FollowUpText is appended after every successful image
// render, on submit and regenerate alike; it is intentional copy, not filler.
const (
	GreetingText = "Hi! I'm H&C. Describe the image you'd like me to create."
	FollowUpText = "\U0001F4A5 Boom! Image is generated, do you want H&C to help you with anything else?"
)

// IsBlank reports whether a message carries neither text nor an image.
// Blank messages render nothing; appending one is a defensive no-op.
func IsBlank(m Message) bool {
	return m.Text == "" && m.ImageURL == ""
}
