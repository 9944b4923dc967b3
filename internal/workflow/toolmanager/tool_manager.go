package toolmanager

import (
	"context"
	"log/slog"
	"runtime/debug"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/Cyclone1070/drift/internal/safety"
	"github.com/Cyclone1070/drift/internal/tool"
)

const (
	msgRejectedByPolicy = "Operation rejected by safety policy"
	msgRejectedByUser   = "User rejected the operation"
)

// ToolManager owns the tool registry and runs the invocation pipeline.
type ToolManager struct {
	mu       sync.RWMutex
	registry map[string]tool.Tool

	cwd      string
	hooks    toolHooks
	approval approver
	logger   *slog.Logger
}

// Option configures a ToolManager.
type Option func(*ToolManager)

// WithHooks sets the hooks fired around every invocation.
func WithHooks(h toolHooks) Option {
	return func(m *ToolManager) { m.hooks = h }
}

// WithApproval enables confirmation gating.
func WithApproval(a approver) Option {
	return func(m *ToolManager) { m.approval = a }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *ToolManager) { m.logger = l }
}

// NewToolManager creates a tool manager rooted at cwd.
func NewToolManager(cwd string, opts ...Option) *ToolManager {
	m := &ToolManager{
		registry: make(map[string]tool.Tool),
		cwd:      cwd,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds t, replacing any tool with the same name.
func (m *ToolManager) Register(tools ...tool.Tool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tools {
		if _, exists := m.registry[t.Name()]; exists {
			m.logger.Warn("replacing registered tool", "tool", t.Name())
		}
		m.registry[t.Name()] = t
	}
}

// Get returns the tool registered under name.
func (m *ToolManager) Get(name string) (tool.Tool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.registry[name]
	return t, ok
}

// Tools returns the registered tools sorted by name.
func (m *ToolManager) Tools() []tool.Tool {
	m.mu.RLock()
	tools := make([]tool.Tool, 0, len(m.registry))
	for _, t := range m.registry {
		tools = append(tools, t)
	}
	m.mu.RUnlock()
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name() < tools[j].Name()
	})
	return tools
}

// Declarations returns all tool schemas for the LLM, sorted by name.
func (m *ToolManager) Declarations() []tool.Declaration {
	tools := m.Tools()
	decls := make([]tool.Declaration, len(tools))
	for i, t := range tools {
		decls[i] = tool.DeclarationOf(t)
	}
	return decls
}

// Filter returns a manager sharing this manager's pipeline settings and
// holding only the named tools. Unknown names are ignored.
func (m *ToolManager) Filter(allowed []string) *ToolManager {
	f := &ToolManager{
		registry: make(map[string]tool.Tool),
		cwd:      m.cwd,
		hooks:    m.hooks,
		approval: m.approval,
		logger:   m.logger,
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, t := range m.registry {
		if slices.Contains(allowed, name) {
			f.registry[name] = t
		}
	}
	return f
}

// Invoke runs the full pipeline for one call and always returns a result.
// A panic anywhere in tool code becomes an internal error. The after-tool
// hook fires exactly once on every path and sees that error.
func (m *ToolManager) Invoke(ctx context.Context, name string, params map[string]any) (res tool.Result) {
	if params == nil {
		params = map[string]any{}
	}
	defer func() {
		if m.hooks != nil {
			m.hooks.AfterTool(ctx, name, params, res)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			m.logger.ErrorContext(ctx, "tool panicked", "tool", name, "panic", r, "stack", string(debug.Stack()))
			res = tool.ErrorResult("Internal error: %v", r)
		}
	}()

	t, ok := m.Get(name)
	if !ok {
		return tool.ErrorResult("Unknown tool: %s", name)
	}

	if errs := t.ValidateParams(params); len(errs) > 0 {
		return tool.ErrorResult("Invalid parameters: %s", strings.Join(errs, "; "))
	}

	if m.hooks != nil {
		m.hooks.BeforeTool(ctx, name, params)
	}

	inv := tool.Invocation{Params: params, Cwd: m.cwd}

	if m.approval != nil {
		if rejected, ok := m.gate(ctx, t, inv); !ok {
			return rejected
		}
	}

	return m.execute(ctx, t, inv)
}

// gate applies the approval engine. It returns false with the result to
// report when the call must not run.
func (m *ToolManager) gate(ctx context.Context, t tool.Tool, inv tool.Invocation) (tool.Result, bool) {
	confirmation := m.confirmation(ctx, t, inv)
	if confirmation == nil {
		return tool.Result{}, true
	}

	decision := m.approval.CheckApproval(safety.ApprovalContext{
		ToolName:      t.Name(),
		Params:        inv.Params,
		IsMutating:    t.IsMutating(inv.Params),
		AffectedPaths: confirmation.AffectedPaths,
		Command:       confirmation.Command,
		IsDangerous:   confirmation.IsDangerous,
	})
	m.logger.DebugContext(ctx, "approval decision", "tool", t.Name(), "decision", decision.String())

	switch decision {
	case safety.Rejected:
		return tool.ErrorResult(msgRejectedByPolicy), false
	case safety.NeedsConfirmation:
		ok, err := m.approval.RequestConfirmation(ctx, confirmation)
		if err != nil {
			m.logger.WarnContext(ctx, "confirmation failed", "tool", t.Name(), "error", err)
		}
		if err != nil || !ok {
			return tool.ErrorResult(msgRejectedByUser), false
		}
	}
	return tool.Result{}, true
}

func (m *ToolManager) confirmation(ctx context.Context, t tool.Tool, inv tool.Invocation) (c *tool.Confirmation) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.ErrorContext(ctx, "confirmation panicked", "tool", t.Name(), "panic", r)
			c = &tool.Confirmation{ToolName: t.Name(), Params: inv.Params, IsDangerous: true}
		}
	}()
	return t.GetConfirmation(ctx, inv)
}

func (m *ToolManager) execute(ctx context.Context, t tool.Tool, inv tool.Invocation) tool.Result {
	res, err := t.Execute(ctx, inv)
	if err != nil {
		m.logger.ErrorContext(ctx, "tool execution failed", "tool", t.Name(), "error", err)
		return tool.ErrorResult("Internal error: %s", err.Error())
	}
	return res
}
