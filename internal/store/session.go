package store

import (
	"sort"
	"time"
)

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one transcript entry. Assistant messages only exist here once
// their stream reached a terminal frame; partial text is never persisted.
type Message struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	Sender        Sender    `json:"sender"`
	Timestamp     time.Time `json:"timestamp"`
	SupportsAudio bool      `json:"supports_audio,omitempty"`
}

// Session is one local conversation. BackendSessionID is the correlation id
// the server assigns the first time a stream on this session confirms it.
type Session struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Messages         []Message `json:"messages"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	BackendSessionID string    `json:"backend_session_id,omitempty"`
}

// UserMessageCount reports how many user messages the session holds. The
// session title is derived from the first one.
func (s *Session) UserMessageCount() int {
	n := 0
	for _, m := range s.Messages {
		if m.Sender == SenderUser {
			n++
		}
	}
	return n
}

// SortByRecency orders sessions by UpdatedAt descending, in place.
func SortByRecency(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
}
