package models

import (
	"time"

	"github.com/Cyclone1070/drift/internal/tool"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model-requested tool invocation.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Message is a single entry in the conversation.
// Content and TokenCount change only when the message is pruned.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"` // set on tool results; Gemini needs the function name
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	TokenCount int        `json:"token_count"`
	PrunedAt   *time.Time `json:"pruned_at,omitempty"`
}

// IsPruned reports whether the message content was redacted by pruning.
func (m Message) IsPruned() bool {
	return m.PrunedAt != nil
}

// TokenUsage holds token counts reported for a request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
	CachedTokens     int `json:"cached_tokens"`
}

// Add returns the component-wise sum of u and other.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
		CachedTokens:     u.CachedTokens + other.CachedTokens,
	}
}

// Request is a single streamed completion request.
type Request struct {
	// System is sent out-of-band by providers that support it.
	// Providers that do not will receive it as the first message instead.
	System string

	Messages []Message
	Tools    []tool.Declaration

	Temperature *float32
}

// StreamEventType discriminates StreamEvent.
type StreamEventType string

const (
	EventTextDelta        StreamEventType = "text_delta"
	EventToolCallStart    StreamEventType = "tool_call_start"
	EventToolCallDelta    StreamEventType = "tool_call_delta"
	EventToolCallComplete StreamEventType = "tool_call_complete"
	EventMessageComplete  StreamEventType = "message_complete"
	EventError            StreamEventType = "error"
)

// StreamEvent is one element of a streamed completion.
// Only the fields relevant to Type are populated.
type StreamEvent struct {
	Type StreamEventType

	// EventTextDelta
	Content string

	// EventToolCallStart, EventToolCallDelta, EventToolCallComplete
	ToolCall  *ToolCall
	ArgsDelta string

	// EventMessageComplete
	FinishReason string
	Usage        *TokenUsage

	// EventError
	Error string
}

// TextDelta builds an EventTextDelta event.
func TextDelta(content string) StreamEvent {
	return StreamEvent{Type: EventTextDelta, Content: content}
}

// ErrorEvent builds an EventError event.
func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, Error: message}
}
