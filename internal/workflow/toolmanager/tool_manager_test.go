package toolmanager

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/Cyclone1070/drift/internal/safety"
	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTool struct {
	name             string
	description      string
	kind             tool.Kind
	validateFunc     func(params map[string]any) []string
	mutatingFunc     func(params map[string]any) bool
	confirmationFunc func(ctx context.Context, inv tool.Invocation) *tool.Confirmation
	executeFunc      func(ctx context.Context, inv tool.Invocation) (tool.Result, error)
	executed         int
}

func (m *mockTool) Name() string        { return m.name }
func (m *mockTool) Description() string { return m.description }
func (m *mockTool) Kind() tool.Kind     { return m.kind }
func (m *mockTool) Schema() *tool.Schema {
	return &tool.Schema{Type: tool.TypeObject}
}
func (m *mockTool) ValidateParams(params map[string]any) []string {
	if m.validateFunc != nil {
		return m.validateFunc(params)
	}
	return nil
}
func (m *mockTool) IsMutating(params map[string]any) bool {
	if m.mutatingFunc != nil {
		return m.mutatingFunc(params)
	}
	return m.kind.Mutating()
}
func (m *mockTool) GetConfirmation(ctx context.Context, inv tool.Invocation) *tool.Confirmation {
	if m.confirmationFunc != nil {
		return m.confirmationFunc(ctx, inv)
	}
	return nil
}
func (m *mockTool) Execute(ctx context.Context, inv tool.Invocation) (tool.Result, error) {
	m.executed++
	if m.executeFunc != nil {
		return m.executeFunc(ctx, inv)
	}
	return tool.SuccessResult("ok"), nil
}

type hookCall struct {
	trigger string
	name    string
	result  tool.Result
}

type mockHooks struct {
	mu    sync.Mutex
	calls []hookCall
}

func (h *mockHooks) BeforeTool(ctx context.Context, name string, params map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, hookCall{trigger: "before", name: name})
}

func (h *mockHooks) AfterTool(ctx context.Context, name string, params map[string]any, result tool.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, hookCall{trigger: "after", name: name, result: result})
}

func (h *mockHooks) count(trigger string) int {
	n := 0
	for _, c := range h.calls {
		if c.trigger == trigger {
			n++
		}
	}
	return n
}

type mockApprover struct {
	decision   safety.Decision
	confirmed  bool
	confirmErr error
	contexts   []safety.ApprovalContext
	asked      int
}

func (a *mockApprover) CheckApproval(ac safety.ApprovalContext) safety.Decision {
	a.contexts = append(a.contexts, ac)
	return a.decision
}

func (a *mockApprover) RequestConfirmation(ctx context.Context, c *tool.Confirmation) (bool, error) {
	a.asked++
	return a.confirmed, a.confirmErr
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(opts ...Option) *ToolManager {
	return NewToolManager("/work", append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func writeConfirmation(ctx context.Context, inv tool.Invocation) *tool.Confirmation {
	return &tool.Confirmation{ToolName: "write", AffectedPaths: []string{"a.txt"}}
}

// --- REGISTRY TESTS ---

func TestRegister_DuplicateNameReplaces(t *testing.T) {
	tm := newManager()
	tm.Register(&mockTool{name: "t", description: "v1"})
	tm.Register(&mockTool{name: "t", description: "v2"})

	decls := tm.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, "v2", decls[0].Description)
}

func TestDeclarations_SortedByName(t *testing.T) {
	tm := newManager()
	tm.Register(&mockTool{name: "z"}, &mockTool{name: "a"}, &mockTool{name: "m"})

	decls := tm.Declarations()
	require.Len(t, decls, 3)
	assert.Equal(t, "a", decls[0].Name)
	assert.Equal(t, "m", decls[1].Name)
	assert.Equal(t, "z", decls[2].Name)
}

func TestFilter(t *testing.T) {
	hooks := &mockHooks{}
	tm := newManager(WithHooks(hooks))
	tm.Register(&mockTool{name: "read_file"}, &mockTool{name: "shell"}, &mockTool{name: "list_dir"})

	f := tm.Filter([]string{"read_file", "list_dir", "missing"})
	names := []string{}
	for _, tl := range f.Tools() {
		names = append(names, tl.Name())
	}
	assert.Equal(t, []string{"list_dir", "read_file"}, names)
	_, ok := f.Get("shell")
	assert.False(t, ok)

	f.Invoke(context.Background(), "read_file", nil)
	assert.Equal(t, 1, hooks.count("after"))
}

// --- INVOKE PIPELINE TESTS ---

func TestInvoke_Success(t *testing.T) {
	hooks := &mockHooks{}
	var gotInv tool.Invocation
	mt := &mockTool{name: "echo", executeFunc: func(ctx context.Context, inv tool.Invocation) (tool.Result, error) {
		gotInv = inv
		return tool.SuccessResult("hi"), nil
	}}
	tm := newManager(WithHooks(hooks))
	tm.Register(mt)

	res := tm.Invoke(context.Background(), "echo", map[string]any{"text": "hi"})
	assert.True(t, res.Success)
	assert.Equal(t, "hi", res.Output)
	assert.Equal(t, "/work", gotInv.Cwd)
	assert.Equal(t, "hi", gotInv.Params["text"])

	require.Len(t, hooks.calls, 2)
	assert.Equal(t, "before", hooks.calls[0].trigger)
	assert.Equal(t, "after", hooks.calls[1].trigger)
	assert.Equal(t, "hi", hooks.calls[1].result.Output)
}

func TestInvoke_UnknownTool(t *testing.T) {
	hooks := &mockHooks{}
	tm := newManager(WithHooks(hooks))

	res := tm.Invoke(context.Background(), "nope", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "Unknown tool: nope", res.Error)
	assert.Equal(t, 1, hooks.count("after"))
	assert.Equal(t, 0, hooks.count("before"))
}

func TestInvoke_ValidationFailure(t *testing.T) {
	hooks := &mockHooks{}
	mt := &mockTool{name: "v", validateFunc: func(map[string]any) []string {
		return []string{"missing required parameter: path", "parameter 'limit' must be of type integer"}
	}}
	tm := newManager(WithHooks(hooks))
	tm.Register(mt)

	res := tm.Invoke(context.Background(), "v", map[string]any{})
	assert.Equal(t, "Invalid parameters: missing required parameter: path; parameter 'limit' must be of type integer", res.Error)
	assert.Equal(t, 0, mt.executed)
	assert.Equal(t, 0, hooks.count("before"))
	assert.Equal(t, 1, hooks.count("after"))
}

func TestInvoke_RejectedByPolicy(t *testing.T) {
	hooks := &mockHooks{}
	approval := &mockApprover{decision: safety.Rejected}
	mt := &mockTool{name: "shell", kind: tool.KindShell, confirmationFunc: func(ctx context.Context, inv tool.Invocation) *tool.Confirmation {
		return &tool.Confirmation{ToolName: "shell", Command: "rm -rf /", IsDangerous: true}
	}}
	tm := newManager(WithHooks(hooks), WithApproval(approval))
	tm.Register(mt)

	res := tm.Invoke(context.Background(), "shell", map[string]any{"command": "rm -rf /"})
	assert.Equal(t, "Operation rejected by safety policy", res.Error)
	assert.Equal(t, 0, mt.executed)
	assert.Equal(t, 0, approval.asked)
	assert.Equal(t, 1, hooks.count("after"))

	require.Len(t, approval.contexts, 1)
	ac := approval.contexts[0]
	assert.Equal(t, "shell", ac.ToolName)
	assert.True(t, ac.IsMutating)
	assert.Equal(t, "rm -rf /", ac.Command)
	assert.True(t, ac.IsDangerous)
}

func TestInvoke_UserDeclines(t *testing.T) {
	hooks := &mockHooks{}
	approval := &mockApprover{decision: safety.NeedsConfirmation, confirmed: false}
	mt := &mockTool{name: "write", kind: tool.KindWrite, confirmationFunc: writeConfirmation}
	tm := newManager(WithHooks(hooks), WithApproval(approval))
	tm.Register(mt)

	res := tm.Invoke(context.Background(), "write", nil)
	assert.Equal(t, "User rejected the operation", res.Error)
	assert.Equal(t, 1, approval.asked)
	assert.Equal(t, 0, mt.executed)
	assert.Equal(t, 1, hooks.count("after"))
}

func TestInvoke_ConfirmationErrorCountsAsDecline(t *testing.T) {
	approval := &mockApprover{decision: safety.NeedsConfirmation, confirmed: true, confirmErr: context.Canceled}
	mt := &mockTool{name: "write", kind: tool.KindWrite, confirmationFunc: writeConfirmation}
	tm := newManager(WithApproval(approval))
	tm.Register(mt)

	res := tm.Invoke(context.Background(), "write", nil)
	assert.Equal(t, "User rejected the operation", res.Error)
	assert.Equal(t, 0, mt.executed)
}

func TestInvoke_UserApproves(t *testing.T) {
	approval := &mockApprover{decision: safety.NeedsConfirmation, confirmed: true}
	mt := &mockTool{name: "write", kind: tool.KindWrite, confirmationFunc: writeConfirmation}
	tm := newManager(WithApproval(approval))
	tm.Register(mt)

	res := tm.Invoke(context.Background(), "write", nil)
	assert.True(t, res.Success)
	assert.Equal(t, 1, mt.executed)
}

func TestInvoke_NoConfirmationSkipsApproval(t *testing.T) {
	approval := &mockApprover{decision: safety.Rejected}
	mt := &mockTool{name: "read"}
	tm := newManager(WithApproval(approval))
	tm.Register(mt)

	res := tm.Invoke(context.Background(), "read", nil)
	assert.True(t, res.Success)
	assert.Empty(t, approval.contexts)
}

func TestInvoke_ExecuteErrorBecomesInternalError(t *testing.T) {
	hooks := &mockHooks{}
	mt := &mockTool{name: "bad", executeFunc: func(ctx context.Context, inv tool.Invocation) (tool.Result, error) {
		return tool.Result{}, errors.New("disk on fire")
	}}
	tm := newManager(WithHooks(hooks))
	tm.Register(mt)

	res := tm.Invoke(context.Background(), "bad", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "Internal error: disk on fire", res.Error)
	assert.Equal(t, 1, hooks.count("after"))
}

func TestInvoke_PanicBecomesInternalError(t *testing.T) {
	hooks := &mockHooks{}
	mt := &mockTool{name: "boom", executeFunc: func(ctx context.Context, inv tool.Invocation) (tool.Result, error) {
		panic("nil map write")
	}}
	tm := newManager(WithHooks(hooks))
	tm.Register(mt)

	var res tool.Result
	assert.NotPanics(t, func() {
		res = tm.Invoke(context.Background(), "boom", nil)
	})
	assert.Equal(t, "Internal error: nil map write", res.Error)
	require.Equal(t, 1, hooks.count("after"))
	assert.Equal(t, "Internal error: nil map write", hooks.calls[len(hooks.calls)-1].result.Error)
}

func TestInvoke_PanicOutsideExecuteBecomesInternalError(t *testing.T) {
	tests := []struct {
		name string
		tool *mockTool
	}{
		{
			name: "validate",
			tool: &mockTool{name: "boom", validateFunc: func(params map[string]any) []string {
				var m map[string]int
				m["x"] = 1
				return nil
			}},
		},
		{
			name: "is mutating",
			tool: &mockTool{
				name:             "boom",
				confirmationFunc: writeConfirmation,
				mutatingFunc:     func(map[string]any) bool { panic("mutating check failed") },
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hooks := &mockHooks{}
			tm := newManager(WithHooks(hooks), WithApproval(&mockApprover{decision: safety.Approved}))
			tm.Register(tt.tool)

			var res tool.Result
			assert.NotPanics(t, func() {
				res = tm.Invoke(context.Background(), "boom", nil)
			})
			assert.False(t, res.Success)
			assert.True(t, strings.HasPrefix(res.Error, "Internal error: "), res.Error)
			assert.Equal(t, 0, tt.tool.executed)
			require.Equal(t, 1, hooks.count("after"))
			assert.Equal(t, res.Error, hooks.calls[len(hooks.calls)-1].result.Error)
		})
	}
}

func TestInvoke_ToolFailureResultPassesThrough(t *testing.T) {
	mt := &mockTool{name: "fail", executeFunc: func(ctx context.Context, inv tool.Invocation) (tool.Result, error) {
		return tool.ErrorResult("file not found: %s", "x.go"), nil
	}}
	tm := newManager()
	tm.Register(mt)

	res := tm.Invoke(context.Background(), "fail", nil)
	assert.Equal(t, "file not found: x.go", res.Error)
}
