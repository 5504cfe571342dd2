// Package stream turns the backend's line-oriented chat stream into semantic
// callbacks: session established, chunk received, complete, error. A state
// machine guards the lifecycle so terminal outcomes are reached at most once.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/qmuntal/stateless"

	"github.com/oykum/carelink-go/internal/logger"
)

// Reconciler states.
type State stateless.State

var (
	StateIdle       State = "Idle"
	StateConnecting State = "Connecting"
	StateStreaming  State = "Streaming"
	StateCompleted  State = "Completed"
	StateFailed     State = "Failed"
	StateTimedOut   State = "TimedOut"
	StateCancelled  State = "Cancelled"
)

type trigger stateless.Trigger

var (
	triggerConnect  trigger = "Connect"
	triggerFrame    trigger = "FrameReceived"
	triggerComplete trigger = "Completed"
	triggerFail     trigger = "Failed"
	triggerTimeout  trigger = "TimedOut"
	triggerCancel   trigger = "Cancelled"
)

// Terminal error flavours. The conversation layer distinguishes a timeout
// from a protocol or network failure via errors.Is.
var (
	ErrTimedOut     = errors.New("response timed out; the reply may be too long")
	ErrDisconnected = errors.New("stream ended before completion")
)

// Frame is one parsed unit of the streaming protocol.
type Frame struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	Done      bool   `json:"done"`
	Error     string `json:"error"`
}

// framePrefix marks deliverable lines; anything else is ignored.
const framePrefix = "data: "

// LineSource yields raw stream lines; io.EOF ends the sequence.
type LineSource interface {
	Next() (string, error)
}

// Callbacks receive the reconciler's three semantic outcomes. Chunk
// callbacks fire in input order; the terminal callback (OnComplete or
// OnError) fires after all of them, at most once. Cancellation is a silent
// teardown: no callback fires.
type Callbacks struct {
	// OnSession fires exactly once, on the first frame carrying a session id.
	OnSession func(sessionID string)
	// OnChunk receives each incremental text fragment, never the whole buffer.
	OnChunk func(fragment string)
	// OnComplete receives the retained session id (may be empty).
	OnComplete func(sessionID string)
	OnError    func(err error)
}

// Reconciler consumes one stream. It is single-use; a retry needs a fresh
// Reconciler over a fresh stream.
type Reconciler struct {
	fsm *stateless.StateMachine
	cb  Callbacks

	sessionID   string
	sessionSeen bool
}

// New creates a reconciler in the Idle state.
func New(cb Callbacks) *Reconciler {
	fsm := stateless.NewStateMachine(StateIdle)

	fsm.Configure(StateIdle).
		Permit(triggerConnect, StateConnecting)

	// Connecting lasts from call start until the first line is read. A stream
	// may also end, fail or time out before producing a single frame.
	fsm.Configure(StateConnecting).
		Permit(triggerFrame, StateStreaming).
		Permit(triggerComplete, StateCompleted).
		Permit(triggerFail, StateFailed).
		Permit(triggerTimeout, StateTimedOut).
		Permit(triggerCancel, StateCancelled)

	fsm.Configure(StateStreaming).
		PermitReentry(triggerFrame).
		Permit(triggerComplete, StateCompleted).
		Permit(triggerFail, StateFailed).
		Permit(triggerTimeout, StateTimedOut).
		Permit(triggerCancel, StateCancelled)

	return &Reconciler{fsm: fsm, cb: cb}
}

// State returns the current lifecycle state.
func (r *Reconciler) State() State {
	return r.fsm.MustState().(State)
}

// SessionID returns the first session id observed on this stream, if any.
func (r *Reconciler) SessionID() string {
	return r.sessionID
}

func (r *Reconciler) fire(t trigger) {
	if err := r.fsm.Fire(t); err != nil {
		// Permit tables above make this unreachable from Run; a failure here
		// means the loop fired after a terminal state.
		logger.L.Error("reconciler transition rejected", "trigger", t, "state", r.fsm.MustState(), "error", err)
	}
}

// Run consumes src until a terminal frame, stream end, timeout or
// cancellation, firing callbacks along the way, and returns the terminal
// state. ctx is the caller's lifetime; cancelling it tears the stream down
// without surfacing an error callback.
func (r *Reconciler) Run(ctx context.Context, src LineSource) State {
	r.fire(triggerConnect)

	for {
		line, err := src.Next()
		if err != nil {
			return r.finishOnReadError(ctx, err)
		}

		// First byte seen: the stream is live even if this line carries no frame.
		if r.State() == StateConnecting {
			r.fire(triggerFrame)
		}

		payload, ok := strings.CutPrefix(line, framePrefix)
		if !ok {
			continue
		}

		var frame Frame
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			logger.L.Warn("skipping malformed frame", "line", line, "error", err)
			continue
		}

		if done := r.apply(frame); done {
			return r.State()
		}
		r.fire(triggerFrame)
	}
}

// apply processes one frame, reporting whether it was terminal. Field order
// matters: a frame may carry a token alongside its terminal marker.
func (r *Reconciler) apply(frame Frame) bool {
	if frame.SessionID != "" && !r.sessionSeen {
		r.sessionSeen = true
		r.sessionID = frame.SessionID
		if r.cb.OnSession != nil {
			r.cb.OnSession(frame.SessionID)
		}
	}

	if frame.Token != "" && r.cb.OnChunk != nil {
		r.cb.OnChunk(frame.Token)
	}

	if frame.Done {
		r.fire(triggerComplete)
		if r.cb.OnComplete != nil {
			r.cb.OnComplete(r.sessionID)
		}
		return true
	}

	if frame.Error != "" {
		r.fire(triggerFail)
		if r.cb.OnError != nil {
			r.cb.OnError(errors.New(frame.Error))
		}
		return true
	}

	return false
}

// finishOnReadError maps a read failure to its terminal state. An EOF without
// a prior done/error frame is abandonment, reported as a disconnect.
func (r *Reconciler) finishOnReadError(ctx context.Context, err error) State {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		r.fire(triggerCancel)
	case errors.Is(err, context.DeadlineExceeded):
		r.fire(triggerTimeout)
		if r.cb.OnError != nil {
			r.cb.OnError(ErrTimedOut)
		}
	case errors.Is(err, io.EOF):
		r.fire(triggerFail)
		if r.cb.OnError != nil {
			r.cb.OnError(ErrDisconnected)
		}
	default:
		r.fire(triggerFail)
		if r.cb.OnError != nil {
			r.cb.OnError(err)
		}
	}
	return r.State()
}
