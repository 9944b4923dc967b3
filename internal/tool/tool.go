package tool

import "context"

// Tool is the contract every tool satisfies: built-ins, MCP tools and subagents.
type Tool interface {
	Name() string
	Description() string
	Kind() Kind
	Schema() *Schema

	// ValidateParams returns one message per problem; empty means valid.
	ValidateParams(params map[string]any) []string

	// IsMutating reports whether this particular call changes state.
	IsMutating(params map[string]any) bool

	// GetConfirmation returns what must be approved before Execute runs,
	// or nil when the call needs no approval.
	GetConfirmation(ctx context.Context, inv Invocation) *Confirmation

	// Execute runs the tool. A returned error is an internal failure;
	// expected failures are reported through Result.
	Execute(ctx context.Context, inv Invocation) (Result, error)
}

// Invocation carries the arguments of one call.
type Invocation struct {
	Params map[string]any
	Cwd    string
}

// Confirmation describes an action awaiting approval.
type Confirmation struct {
	ToolName      string
	Description   string
	Params        map[string]any
	AffectedPaths []string
	Command       string
	IsDangerous   bool
	Diff          *FileDiff
}

// DeclarationOf builds the LLM declaration for t.
func DeclarationOf(t Tool) Declaration {
	return Declaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Schema(),
	}
}
