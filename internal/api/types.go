package api

// Sender values used in message records.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Feedback status values accepted by the backend.
const (
	StatusLike    = "like"
	StatusDislike = "dislike"
)

// Message is a single chat message as stored by the backend. A message may
// carry text, an image, both, or neither; ID is only meaningful for bot
// messages that carry an image (feedback and regeneration target it).
type Message struct {
	ID       string `json:"id,omitempty"`
	Sender   string `json:"sender"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Status   string `json:"status,omitempty"`
}

// SessionSummary is the directory-listing form of a session.
type SessionSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SessionRecord is the full form returned when loading one session.
type SessionRecord struct {
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

// GenerateResult is the response to a generation request.
type GenerateResult struct {
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id"`
	ImageURL  string `json:"image_url"`
}

// RegenerateResult is the response to a regeneration request.
// The backend also echoes the session id and prompt; callers only
// need the new message id and image.
type RegenerateResult struct {
	MessageID string `json:"message_id"`
	ImageURL  string `json:"image_url"`
}
