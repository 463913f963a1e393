package domain

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrSessionBusy indicates a question is already being answered in the session.
var ErrSessionBusy = errors.New("session already has a question in flight")

// ConversationTurn is one message in a session's history.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is the per-user conversation context passed to the answer engine.
// History is append-only for the lifetime of the session.
type Session struct {
	// ID identifies the session in logs.
	ID string

	// CreatedAt is when the session started.
	CreatedAt time.Time

	mu       sync.Mutex
	inflight sync.Mutex
	history  []ConversationTurn
}

// NewSession creates an empty session with the given identifier.
func NewSession(id string) *Session {
	return &Session{ID: id, CreatedAt: time.Now()}
}

// Append adds turns to the end of the history.
func (s *Session) Append(turns ...ConversationTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, turns...)
}

// History returns a copy of the turns in chronological order.
func (s *Session) History() []ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ConversationTurn(nil), s.history...)
}

// Len returns the number of turns recorded.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Acquire marks a question as in flight. The returned release func must be
// called when the answer completes. Returns ErrSessionBusy if another
// question is still being answered.
func (s *Session) Acquire() (func(), error) {
	if !s.inflight.TryLock() {
		return nil, ErrSessionBusy
	}
	return s.inflight.Unlock, nil
}

// WindowHistory returns the last n turns, or all turns when n <= 0.
func WindowHistory(turns []ConversationTurn, n int) []ConversationTurn {
	if n <= 0 || len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

// SerializeHistory renders turns as "role: content" lines in chronological order.
func SerializeHistory(turns []ConversationTurn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
	}
	return b.String()
}

// Answer is the result of answering one question.
type Answer struct {
	// Question is the question as asked by the user.
	Question string `json:"question"`

	// Text is the generated answer.
	Text string `json:"text"`

	// SourceChunks are the retrieved chunks the answer was grounded on.
	SourceChunks []Chunk `json:"-"`

	// Grounded is false when no context was retrieved and the engine
	// answered with the don't-know phrase without calling the model.
	Grounded bool `json:"grounded"`
}
