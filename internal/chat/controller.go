// Package chat orchestrates one logical exchange at a time: it is the only
// component that mutates the session store as the result of a network call.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oykum/carelink-go/internal/api"
	"github.com/oykum/carelink-go/internal/logger"
	"github.com/oykum/carelink-go/internal/store"
	"github.com/oykum/carelink-go/internal/stream"
)

var (
	// ErrAuthRequired means the user must log in before chatting.
	ErrAuthRequired = errors.New("authentication required")
	// ErrBusy rejects a send while a previous stream is still active. It is
	// never queued; the presentation layer ignores it silently.
	ErrBusy = errors.New("a reply is already streaming")
)

const (
	greetingText = "Hello! I'm your health assistant. How can I help you? " +
		"We can talk about your health, your medications, or any other health question you have."
	defaultTitle   = "New Chat"
	titleWordLimit = 6
)

// RawStream is a single-use raw line stream.
type RawStream interface {
	stream.LineSource
	Close() error
}

// Transport is the subset of the API client the controller needs; it is easy
// to mock in tests.
type Transport interface {
	OpenStream(ctx context.Context, message string) (RawStream, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// SessionStore persists the per-identity session list.
type SessionStore interface {
	Load(userID string) []store.Session
	Save(userID string, sessions []store.Session) error
}

// UpdateKind classifies controller events delivered to the presentation layer.
type UpdateKind int

const (
	// UpdateChunk carries one incremental fragment of the pending reply.
	UpdateChunk UpdateKind = iota
	// UpdateSessionStarted reports the backend's correlation id.
	UpdateSessionStarted
	// UpdateComplete ends an exchange; Message is the materialized assistant
	// reply, or nil when the stream completed with an empty buffer.
	UpdateComplete
	// UpdateError ends an exchange with a visible transcript error (Message),
	// except for auth failures which only carry Err.
	UpdateError
)

// Update is one controller event. Updates for a single exchange arrive in
// order and end with exactly one UpdateComplete or UpdateError, unless the
// exchange was cancelled, in which case the channel just closes.
type Update struct {
	Kind             UpdateKind
	SessionID        string
	BackendSessionID string
	Chunk            string
	Message          *store.Message
	Err              error
}

// Controller owns the session list for one authenticated identity plus the
// transient state of the in-flight exchange.
type Controller struct {
	transport Transport
	store     SessionStore
	userID    string

	mu        sync.Mutex
	sessions  []store.Session
	currentID string

	busy      bool
	pending   strings.Builder
	pendingID string
	cancel    context.CancelFunc
}

// New creates a controller for userID, loading its saved sessions and seeding
// a fresh greeted session when none exist. An empty userID yields a
// controller that rejects sends with ErrAuthRequired.
func New(transport Transport, st SessionStore, userID string) *Controller {
	c := &Controller{transport: transport, store: st, userID: userID}
	if userID == "" {
		return c
	}
	c.sessions = st.Load(userID)
	if len(c.sessions) == 0 {
		c.newSessionLocked()
		c.persistLocked()
	} else {
		c.currentID = c.sessions[0].ID
	}
	return c
}

// Sessions returns a snapshot of all sessions, most recently updated first.
func (c *Controller) Sessions() []store.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]store.Session, len(c.sessions))
	for i, s := range c.sessions {
		out[i] = s
		out[i].Messages = append([]store.Message(nil), s.Messages...)
	}
	return out
}

// CurrentID returns the selected session's id.
func (c *Controller) CurrentID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentID
}

// Current returns a snapshot of the selected session.
func (c *Controller) Current() (store.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess := c.findLocked(c.currentID)
	if sess == nil {
		return store.Session{}, false
	}
	out := *sess
	out.Messages = append([]store.Message(nil), sess.Messages...)
	return out, true
}

// SwitchSession selects another session for display.
func (c *Controller) SwitchSession(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.findLocked(id) == nil {
		return false
	}
	c.currentID = id
	return true
}

// Busy reports whether a stream is active.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// PendingText returns the transient buffer for the given session: the
// assistant reply still being streamed. It is display state only and is never
// persisted.
func (c *Controller) PendingText(sessionID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingID != sessionID {
		return ""
	}
	return c.pending.String()
}

// NewSession creates and selects a fresh session seeded with the greeting.
func (c *Controller) NewSession() store.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess := c.newSessionLocked()
	c.persistLocked()
	out := *sess
	out.Messages = append([]store.Message(nil), sess.Messages...)
	return out
}

// SendMessage starts one exchange against the current session. Empty or
// whitespace-only input is a no-op returning (nil, nil). The returned channel
// delivers chunk and terminal updates and is closed when the exchange ends.
func (c *Controller) SendMessage(ctx context.Context, text string) (<-chan Update, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if c.userID == "" {
		return nil, ErrAuthRequired
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.busy = true

	sess := c.findLocked(c.currentID)
	if sess == nil {
		sess = c.newSessionLocked()
	}
	now := time.Now()
	if sess.UserMessageCount() == 0 {
		sess.Title = deriveTitle(text)
	}
	sess.Messages = append(sess.Messages, store.Message{
		ID:        uuid.NewString(),
		Content:   text,
		Sender:    store.SenderUser,
		Timestamp: now,
	})
	sess.UpdatedAt = now
	c.persistLocked()

	c.pending.Reset()
	c.pendingID = sess.ID
	sessionID := sess.ID

	streamCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	updates := make(chan Update, 64)
	go c.run(streamCtx, sessionID, text, updates)
	return updates, nil
}

// run performs the network half of one exchange on its own goroutine. Every
// path out of here clears the busy flag.
func (c *Controller) run(ctx context.Context, sessionID, text string, updates chan<- Update) {
	defer close(updates)
	defer c.endExchange()

	src, err := c.transport.OpenStream(ctx, text)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.failExchange(sessionID, err, updates)
		return
	}
	defer src.Close()

	rec := stream.New(stream.Callbacks{
		OnSession: func(backendID string) {
			c.recordBackendID(sessionID, backendID)
			updates <- Update{Kind: UpdateSessionStarted, SessionID: sessionID, BackendSessionID: backendID}
		},
		OnChunk: func(fragment string) {
			c.mu.Lock()
			c.pending.WriteString(fragment)
			c.mu.Unlock()
			updates <- Update{Kind: UpdateChunk, SessionID: sessionID, Chunk: fragment}
		},
		OnComplete: func(string) {
			msg := c.completeExchange(sessionID)
			updates <- Update{Kind: UpdateComplete, SessionID: sessionID, Message: msg}
		},
		OnError: func(err error) {
			c.failExchange(sessionID, err, updates)
		},
	})
	rec.Run(ctx, src)
}

// completeExchange materializes the transient buffer as an assistant message.
// An empty buffer produces nothing; there is nothing to show.
func (c *Controller) completeExchange(sessionID string) *store.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	text := c.pending.String()
	c.pending.Reset()
	c.pendingID = ""
	if strings.TrimSpace(text) == "" {
		return nil
	}
	sess := c.findLocked(sessionID)
	if sess == nil {
		return nil
	}
	now := time.Now()
	msg := store.Message{
		ID:            uuid.NewString(),
		Content:       text,
		Sender:        store.SenderAssistant,
		Timestamp:     now,
		SupportsAudio: true,
	}
	sess.Messages = append(sess.Messages, msg)
	sess.UpdatedAt = now
	c.persistLocked()
	return &msg
}

// failExchange converts a terminal failure into a visible transcript message
// so the user keeps continuity. Auth failures are the exception: they carry
// only the error, prompting a login instead of polluting the transcript.
func (c *Controller) failExchange(sessionID string, cause error, updates chan<- Update) {
	c.mu.Lock()
	c.pending.Reset()
	c.pendingID = ""

	if errors.Is(cause, api.ErrUnauthenticated) {
		c.mu.Unlock()
		updates <- Update{Kind: UpdateError, SessionID: sessionID, Err: ErrAuthRequired}
		return
	}
	if errors.Is(cause, context.DeadlineExceeded) {
		cause = stream.ErrTimedOut
	}

	var msg *store.Message
	if sess := c.findLocked(sessionID); sess != nil {
		now := time.Now()
		m := store.Message{
			ID:        uuid.NewString(),
			Content:   "Error: " + cause.Error(),
			Sender:    store.SenderAssistant,
			Timestamp: now,
		}
		sess.Messages = append(sess.Messages, m)
		sess.UpdatedAt = now
		c.persistLocked()
		msg = &m
	}
	c.mu.Unlock()
	updates <- Update{Kind: UpdateError, SessionID: sessionID, Message: msg, Err: cause}
}

func (c *Controller) endExchange() {
	c.mu.Lock()
	c.busy = false
	c.pending.Reset()
	c.pendingID = ""
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}

// recordBackendID stores the correlation id the first time any stream on this
// session confirms it; later values are ignored.
func (c *Controller) recordBackendID(sessionID, backendID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess := c.findLocked(sessionID)
	if sess == nil || sess.BackendSessionID != "" {
		return
	}
	sess.BackendSessionID = backendID
	c.persistLocked()
}

// DeleteSession removes a session locally and best-effort remotely. Local
// state is authoritative: a remote failure is logged, never surfaced. When
// the current session goes away the most recently updated one takes over, or
// a fresh greeted session if none remain.
func (c *Controller) DeleteSession(ctx context.Context, id string) error {
	c.mu.Lock()
	idx := -1
	for i := range c.sessions {
		if c.sessions[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("unknown session: %s", id)
	}

	remoteID := c.sessions[idx].BackendSessionID
	if remoteID == "" {
		remoteID = id
	}

	c.sessions = append(c.sessions[:idx], c.sessions[idx+1:]...)
	if c.currentID == id {
		if len(c.sessions) > 0 {
			store.SortByRecency(c.sessions)
			c.currentID = c.sessions[0].ID
		} else {
			c.newSessionLocked()
		}
	}
	c.persistLocked()
	c.mu.Unlock()

	if err := c.transport.DeleteSession(ctx, remoteID); err != nil {
		logger.L.Warn("remote session deletion failed", "session_id", remoteID, "error", err)
	}
	return nil
}

// RenameSession is a pure local mutation.
func (c *Controller) RenameSession(id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("title must not be empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	sess := c.findLocked(id)
	if sess == nil {
		return fmt.Errorf("unknown session: %s", id)
	}
	sess.Title = title
	sess.UpdatedAt = time.Now()
	c.persistLocked()
	return nil
}

// Close tears down any open stream. No partial assistant message survives a
// cancelled exchange.
func (c *Controller) Close() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Controller) findLocked(id string) *store.Session {
	for i := range c.sessions {
		if c.sessions[i].ID == id {
			return &c.sessions[i]
		}
	}
	return nil
}

func (c *Controller) newSessionLocked() *store.Session {
	now := time.Now()
	sess := store.Session{
		ID:    uuid.NewString(),
		Title: defaultTitle,
		Messages: []store.Message{{
			ID:            uuid.NewString(),
			Content:       greetingText,
			Sender:        store.SenderAssistant,
			Timestamp:     now,
			SupportsAudio: true,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.sessions = append([]store.Session{sess}, c.sessions...)
	c.currentID = sess.ID
	return &c.sessions[0]
}

func (c *Controller) persistLocked() {
	if err := c.store.Save(c.userID, c.sessions); err != nil {
		logger.L.Error("failed to persist sessions", "user_id", c.userID, "error", err)
	}
}

// deriveTitle takes the first words of the first user message, marking
// truncation with an ellipsis.
func deriveTitle(message string) string {
	words := strings.Fields(message)
	if len(words) <= titleWordLimit {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:titleWordLimit], " ") + "..."
}
