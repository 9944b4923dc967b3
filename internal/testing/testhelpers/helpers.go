// Package testhelpers provides shared utilities for integration testing
package testhelpers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/Cyclone1070/drift/internal/provider/models"
)

// ErrScriptExhausted is returned when a test asks for more turns than it
// scripted.
var ErrScriptExhausted = errors.New("mock stream client: no scripted response left")

type scriptedTurn struct {
	events  []models.StreamEvent
	openErr error
}

// MockStreamClient is a controllable mock for a model. Each call to Stream
// consumes the next scripted turn.
type MockStreamClient struct {
	mu       sync.Mutex
	turns    []scriptedTurn
	next     int
	requests []*models.Request

	// OnStream is a callback for observing Stream calls
	OnStream func(*models.Request)
}

// NewMockStreamClient creates an empty mock.
func NewMockStreamClient() *MockStreamClient {
	return &MockStreamClient{}
}

// WithEvents queues a turn that yields exactly events.
func (m *MockStreamClient) WithEvents(events ...models.StreamEvent) *MockStreamClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, scriptedTurn{events: events})
	return m
}

// WithTextResponse queues a turn streaming text in one delta followed by a
// completion carrying usage.
func (m *MockStreamClient) WithTextResponse(text string, usage models.TokenUsage) *MockStreamClient {
	return m.WithEvents(
		models.TextDelta(text),
		Complete("stop", usage),
	)
}

// WithToolCallResponse queues a turn requesting calls, with optional text
// first.
func (m *MockStreamClient) WithToolCallResponse(text string, usage models.TokenUsage, calls ...models.ToolCall) *MockStreamClient {
	var events []models.StreamEvent
	if text != "" {
		events = append(events, models.TextDelta(text))
	}
	for i := range calls {
		call := calls[i]
		events = append(events,
			models.StreamEvent{Type: models.EventToolCallStart, ToolCall: &models.ToolCall{ID: call.ID, Name: call.Name}},
			models.StreamEvent{Type: models.EventToolCallComplete, ToolCall: &call},
		)
	}
	events = append(events, Complete("tool_calls", usage))
	return m.WithEvents(events...)
}

// WithOpenError queues a turn whose Stream call fails.
func (m *MockStreamClient) WithOpenError(err error) *MockStreamClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, scriptedTurn{openErr: err})
	return m
}

// Stream implements models.StreamClient.
func (m *MockStreamClient) Stream(ctx context.Context, req *models.Request) (models.Stream, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	cb := m.OnStream
	if m.next >= len(m.turns) {
		m.mu.Unlock()
		return nil, fmt.Errorf("turn %d: %w", m.next+1, ErrScriptExhausted)
	}
	turn := m.turns[m.next]
	m.next++
	m.mu.Unlock()

	if cb != nil {
		cb(req)
	}
	if turn.openErr != nil {
		return nil, turn.openErr
	}
	return &scriptedStream{ctx: ctx, events: turn.events}, nil
}

// Requests returns every request seen so far.
func (m *MockStreamClient) Requests() []*models.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Request(nil), m.requests...)
}

// Calls returns how many times Stream was called.
func (m *MockStreamClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Complete builds a message-complete event.
func Complete(reason string, usage models.TokenUsage) models.StreamEvent {
	return models.StreamEvent{Type: models.EventMessageComplete, FinishReason: reason, Usage: &usage}
}

// Usage builds a TokenUsage with a consistent total.
func Usage(prompt, completion int) models.TokenUsage {
	return models.TokenUsage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}
}

type scriptedStream struct {
	ctx    context.Context
	events []models.StreamEvent
	pos    int
	closed bool
}

func (s *scriptedStream) Next() (models.StreamEvent, error) {
	if err := s.ctx.Err(); err != nil {
		return models.StreamEvent{}, err
	}
	if s.closed || s.pos >= len(s.events) {
		return models.StreamEvent{}, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}
