// Package session tracks the identity of one agent conversation and
// converts it to and from persistable snapshots.
package session

import (
	"time"

	"github.com/Cyclone1070/drift/internal/conversation"
	"github.com/Cyclone1070/drift/internal/provider/models"
	"github.com/google/uuid"
)

// Session is the identity and lifetime of one conversation.
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	TurnCount int
	Context   *conversation.Store

	now func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New starts a session around ctx with a fresh random id.
func New(ctx *conversation.Store, opts ...Option) *Session {
	s := &Session{Context: ctx, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.ID = uuid.NewString()
	s.CreatedAt = s.now()
	s.UpdatedAt = s.CreatedAt
	return s
}

// IncrementTurn counts one more turn and returns the new count.
func (s *Session) IncrementTurn() int {
	s.TurnCount++
	s.UpdatedAt = s.now()
	return s.TurnCount
}

// Snapshot is the persisted form of a session.
type Snapshot struct {
	SessionID  string            `json:"session_id"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	TurnCount  int               `json:"turn_count"`
	Messages   []models.Message  `json:"messages"`
	TotalUsage models.TokenUsage `json:"total_usage"`
}

// Snapshot captures the session and its conversation.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		SessionID:  s.ID,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		TurnCount:  s.TurnCount,
		Messages:   s.Context.History(),
		TotalUsage: s.Context.TotalUsage(),
	}
}

// Restore replaces identity and conversation with snap. The system prompt
// of the current context is kept.
func (s *Session) Restore(snap Snapshot) {
	s.ID = snap.SessionID
	s.CreatedAt = snap.CreatedAt
	s.UpdatedAt = snap.UpdatedAt
	s.TurnCount = snap.TurnCount
	s.Context.Restore(snap.Messages, snap.TotalUsage)
}

// Stats summarizes a session for display.
type Stats struct {
	SessionID    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	TurnCount    int
	MessageCount int
	TokenUsage   models.TokenUsage
	ToolsCount   int
	MCPServers   []string
}

// Stats reports the session counters. Tool and MCP figures are left for
// the caller, which owns the registry.
func (s *Session) Stats() Stats {
	return Stats{
		SessionID:    s.ID,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		TurnCount:    s.TurnCount,
		MessageCount: s.Context.Len(),
		TokenUsage:   s.Context.TotalUsage(),
	}
}
