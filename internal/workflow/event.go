package workflow

import (
	"github.com/Cyclone1070/drift/internal/provider/models"
	"github.com/Cyclone1070/drift/internal/tool"
)

// Event is the interface for all agent events.
// UI handles events via type switch.
type Event interface {
	isEvent()
}

// AgentStart is emitted once per Run, before the first turn.
type AgentStart struct {
	Message string
}

func (AgentStart) isEvent() {}

// TextDelta is emitted for each streamed text fragment.
type TextDelta struct {
	Text string
}

func (TextDelta) isEvent() {}

// TextComplete is emitted after a turn that produced text.
type TextComplete struct {
	Text string
}

func (TextComplete) isEvent() {}

// ToolCallStart is emitted before a tool call is invoked.
type ToolCallStart struct {
	CallID    string
	Name      string
	Arguments map[string]any
}

func (ToolCallStart) isEvent() {}

// ToolCallComplete is emitted after a tool call finished.
type ToolCallComplete struct {
	CallID string
	Name   string
	Result tool.Result
}

func (ToolCallComplete) isEvent() {}

// AgentError reports a stream error, a cancellation or an exhausted turn
// budget. In-band stream errors do not end the run.
type AgentError struct {
	Message string
}

func (AgentError) isEvent() {}

// Compacted is emitted after the conversation was replaced by a summary.
// Before and After are message counts.
type Compacted struct {
	Before int
	After  int
	Usage  models.TokenUsage
}

func (Compacted) isEvent() {}

// LoopDetected is emitted when the loop detector fired and a loop-breaker
// message was injected.
type LoopDetected struct {
	Description string
}

func (LoopDetected) isEvent() {}

// AgentEnd is emitted once per Run with the final assistant text.
type AgentEnd struct {
	Response string
}

func (AgentEnd) isEvent() {}
