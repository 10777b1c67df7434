package chat

import (
	"context"
	"strings"

	"github.com/qmuntal/stateless"

	"github.com/comigor/atelier-go/internal/api"
	"github.com/comigor/atelier-go/internal/logger"
)

// Transport is the subset of the backend API the pipeline depends on; it is
// easy to mock in tests.
type Transport interface {
	ListSessions(ctx context.Context) ([]api.SessionSummary, error)
	GetSession(ctx context.Context, id string) (*api.SessionRecord, error)
	Generate(ctx context.Context, prompt, sessionID string) (*api.GenerateResult, error)
	UpdateStatus(ctx context.Context, messageID, status string) error
	Regenerate(ctx context.Context, messageID string) (*api.RegenerateResult, error)
}

// FSM states of one submission.
type SubmissionState stateless.State

var (
	StateIdle     SubmissionState = "Idle"
	StateEchoed   SubmissionState = "Echoed"
	StatePending  SubmissionState = "Pending"
	StateResolved SubmissionState = "Resolved" // Terminal: result rendered
	StateFailed   SubmissionState = "Failed"   // Terminal: inline error notice
)

// FSM triggers.
type SubmissionTrigger stateless.Trigger

var (
	TriggerInputAccepted SubmissionTrigger = "InputAccepted"
	TriggerDispatched    SubmissionTrigger = "Dispatched"
	TriggerSucceeded     SubmissionTrigger = "Succeeded"
	TriggerFailed        SubmissionTrigger = "Failed"
)

// Error text shown in place of a loading placeholder.
const (
	generateErrorText   = "Something went wrong while generating your image. Please try again."
	regenerateErrorText = "Could not regenerate the image. Please try again."
)

// Orchestrator coordinates the end-to-end flow for submitting a prompt or
// regenerating an image: optimistic local echo, loading placeholder, request
// dispatch, and success/failure reconciliation. Every flow catches transport
// errors at its own boundary and converts them to a transcript-visible
// signal; nothing propagates as a crash into unrelated flows.
type Orchestrator struct {
	transport  Transport
	state      *SessionState
	transcript *Transcript
	directory  *Directory

	notify func() // optional; invoked after every visible mutation
}

// NewOrchestrator wires the pipeline together. directory may be nil when no
// sidebar exists (headless use); the resolved-submission refresh is skipped.
func NewOrchestrator(transport Transport, state *SessionState, transcript *Transcript, directory *Directory) *Orchestrator {
	return &Orchestrator{
		transport:  transport,
		state:      state,
		transcript: transcript,
		directory:  directory,
	}
}

// SetNotify registers a repaint hook.
func (o *Orchestrator) SetNotify(fn func()) {
	o.notify = fn
}

func (o *Orchestrator) changed() {
	if o.notify != nil {
		o.notify()
	}
}

// Submit runs one full submission through the state machine. Empty or
// whitespace-only input is a silent no-op. A transport failure is fully
// handled (inline error notice); the returned error exists for logging only.
func (o *Orchestrator) Submit(ctx context.Context, input string) error {
	prompt := strings.TrimSpace(input)
	if prompt == "" {
		return nil
	}

	// Per-submission context; the placeholder handle keeps overlapping
	// submissions independent.
	type submissionContext struct {
		placeholder *Placeholder
		epoch       uint64
		result      *api.GenerateResult
		lastError   error
	}
	subCtx := &submissionContext{}

	fsm := stateless.NewStateMachine(StateIdle)

	fsm.Configure(StateIdle).
		Permit(TriggerInputAccepted, StateEchoed)

	// Echoed: render the user's message before any network call is issued.
	fsm.Configure(StateEchoed).
		OnEntry(func(ctx context.Context, args ...any) error {
			o.transcript.Append(Message{Sender: SenderUser, Text: prompt})
			o.changed()
			return fsm.FireCtx(ctx, TriggerDispatched)
		}).
		Permit(TriggerDispatched, StatePending)

	// Pending: placeholder up, request out. The session id travels with the
	// request; empty means "start a new session".
	fsm.Configure(StatePending).
		OnEntry(func(ctx context.Context, args ...any) error {
			subCtx.placeholder = o.transcript.AppendPlaceholder()
			subCtx.epoch = o.state.Epoch()
			o.changed()

			sessionID, _ := o.state.Get()
			result, err := o.transport.Generate(ctx, prompt, sessionID)
			if err != nil {
				subCtx.lastError = err
				return fsm.FireCtx(ctx, TriggerFailed)
			}
			subCtx.result = result
			return fsm.FireCtx(ctx, TriggerSucceeded)
		}).
		Permit(TriggerSucceeded, StateResolved).
		Permit(TriggerFailed, StateFailed)

	// Resolved: adopt the server's session id (always overwrite), swap the
	// placeholder for the image message plus the fixed follow-up, and let
	// the directory pick up the possibly new session.
	fsm.Configure(StateResolved).
		OnEntry(func(ctx context.Context, args ...any) error {
			if stale := o.state.Adopt(subCtx.result.SessionID, subCtx.epoch); stale {
				logger.L.Warn("submission resolved after session switch",
					"session_id", subCtx.result.SessionID)
			}
			subCtx.placeholder.Resolve()
			o.transcript.Append(Message{
				ID:       subCtx.result.MessageID,
				Sender:   SenderBot,
				ImageURL: subCtx.result.ImageURL,
			})
			o.transcript.Append(Message{Sender: SenderBot, Text: FollowUpText})
			o.changed()

			if o.directory != nil {
				if err := o.directory.Refresh(ctx); err != nil {
					logger.L.Warn("directory refresh after submit failed", "error", err)
				}
			}
			return nil
		})

	// Failed: the placeholder becomes an inline error notice, in place.
	// Session state is left untouched; no automatic retry.
	fsm.Configure(StateFailed).
		OnEntry(func(ctx context.Context, args ...any) error {
			subCtx.placeholder.Fail(generateErrorText)
			o.changed()
			return nil
		})

	if err := fsm.FireCtx(ctx, TriggerInputAccepted); err != nil {
		logger.L.Error("submission FSM fire error", "error", err)
		return err
	}
	if subCtx.lastError != nil {
		logger.L.Warn("generate request failed", "error", subCtx.lastError)
	}
	return subCtx.lastError
}

// Regenerate runs the pending → resolved|failed shape scoped to one message.
// Success appends the new image and the fixed follow-up; session state and
// the directory are never touched.
func (o *Orchestrator) Regenerate(ctx context.Context, messageID string) error {
	type regenContext struct {
		placeholder *Placeholder
		result      *api.RegenerateResult
		lastError   error
	}
	regCtx := &regenContext{}

	fsm := stateless.NewStateMachine(StateIdle)

	fsm.Configure(StateIdle).
		Permit(TriggerDispatched, StatePending)

	fsm.Configure(StatePending).
		OnEntry(func(ctx context.Context, args ...any) error {
			regCtx.placeholder = o.transcript.AppendPlaceholder()
			o.changed()

			result, err := o.transport.Regenerate(ctx, messageID)
			if err != nil {
				regCtx.lastError = err
				return fsm.FireCtx(ctx, TriggerFailed)
			}
			regCtx.result = result
			return fsm.FireCtx(ctx, TriggerSucceeded)
		}).
		Permit(TriggerSucceeded, StateResolved).
		Permit(TriggerFailed, StateFailed)

	fsm.Configure(StateResolved).
		OnEntry(func(ctx context.Context, args ...any) error {
			regCtx.placeholder.Resolve()
			o.transcript.Append(Message{
				ID:       regCtx.result.MessageID,
				Sender:   SenderBot,
				ImageURL: regCtx.result.ImageURL,
			})
			o.transcript.Append(Message{Sender: SenderBot, Text: FollowUpText})
			o.changed()
			return nil
		})

	fsm.Configure(StateFailed).
		OnEntry(func(ctx context.Context, args ...any) error {
			regCtx.placeholder.Fail(regenerateErrorText)
			o.changed()
			return nil
		})

	if err := fsm.FireCtx(ctx, TriggerDispatched); err != nil {
		logger.L.Error("regeneration FSM fire error", "error", err)
		return err
	}
	if regCtx.lastError != nil {
		logger.L.Warn("regenerate request failed", "message_id", messageID, "error", regCtx.lastError)
	}
	return regCtx.lastError
}

// Feedback records like/dislike for a message. The local highlight is applied
// only after the backend acknowledges the update; there is no optimistic
// toggle and no client-side guard against re-toggling (last write wins).
func (o *Orchestrator) Feedback(ctx context.Context, messageID, status string) error {
	if err := o.transport.UpdateStatus(ctx, messageID, status); err != nil {
		logger.L.Warn("status update failed", "message_id", messageID, "error", err)
		return err
	}
	o.transcript.SetStatus(messageID, status)
	o.changed()
	return nil
}
