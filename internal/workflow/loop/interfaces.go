package loop

import (
	"context"

	"github.com/Cyclone1070/drift/internal/provider/models"
	"github.com/Cyclone1070/drift/internal/tool"
)

// toolInvoker runs tool calls through the approval pipeline.
type toolInvoker interface {
	// Declarations returns all tool schemas for the LLM.
	Declarations() []tool.Declaration

	// Invoke runs one call. Failures are reported in the result.
	Invoke(ctx context.Context, name string, params map[string]any) tool.Result
}

// summarizer condenses a conversation that outgrew its context window.
type summarizer interface {
	Summarize(ctx context.Context, messages []models.Message) (*string, *models.TokenUsage)
}

// lifecycleHooks fires the run-level hooks. Failures are the hook
// system's concern and never reach the loop.
type lifecycleHooks interface {
	BeforeAgent(ctx context.Context, userMessage string)
	AfterAgent(ctx context.Context, userMessage, response string)
	OnError(ctx context.Context, err error)
}
