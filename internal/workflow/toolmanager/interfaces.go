package toolmanager

import (
	"context"

	"github.com/Cyclone1070/drift/internal/safety"
	"github.com/Cyclone1070/drift/internal/tool"
)

// toolHooks fires the tool lifecycle hooks. Implementations swallow their
// own failures.
type toolHooks interface {
	BeforeTool(ctx context.Context, name string, params map[string]any)
	AfterTool(ctx context.Context, name string, params map[string]any, result tool.Result)
}

// approver gates invocations that ask for confirmation.
type approver interface {
	CheckApproval(ac safety.ApprovalContext) safety.Decision
	RequestConfirmation(ctx context.Context, c *tool.Confirmation) (bool, error)
}
