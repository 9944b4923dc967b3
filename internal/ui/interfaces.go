package ui

import (
	"context"

	"github.com/Cyclone1070/drift/internal/provider/models"
	"github.com/Cyclone1070/drift/internal/safety"
	"github.com/Cyclone1070/drift/internal/workflow"
)

// MarkdownRenderer renders markdown for a terminal of the given width.
type MarkdownRenderer interface {
	Render(content string, width int) (string, error)
}

// Terminal is a front end for the agent. ReadInput and ReadPermission
// block until the user answers or ctx ends.
type Terminal interface {
	safety.Prompter

	// ReadInput returns the next non-blank user message.
	ReadInput(ctx context.Context, prompt string) (string, error)

	// TurnContext derives the context for one agent run. Cancelling it is
	// how the user interrupts a run without leaving the session.
	TurnContext(ctx context.Context) (context.Context, context.CancelFunc)

	// Consume renders events until AgentEnd or until events closes.
	Consume(events <-chan workflow.Event)

	WriteUsage(total models.TokenUsage, model string, latest, window int)
	WriteMessage(msg string)
}
