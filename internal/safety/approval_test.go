package safety

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, policy Policy, opts ...Option) (*Engine, string) {
	t.Helper()
	cwd := t.TempDir()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewEngine(policy, cwd, opts...), cwd
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("auto-edit")
	require.NoError(t, err)
	assert.Equal(t, PolicyAutoEdit, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyOnRequest, p)

	_, err = ParsePolicy("sometimes")
	assert.Error(t, err)
}

func TestCheckApproval_NonMutatingAlwaysApproved(t *testing.T) {
	for _, policy := range []Policy{PolicyNever, PolicyOnRequest, PolicyYolo} {
		e, _ := newTestEngine(t, policy)
		d := e.CheckApproval(ApprovalContext{
			ToolName:      "read_file",
			AffectedPaths: []string{"/etc/passwd"},
			IsDangerous:   true,
		})
		assert.Equal(t, Approved, d, policy)
	}
}

func TestCheckApproval_DangerousCommand(t *testing.T) {
	tests := []struct {
		policy Policy
		want   Decision
	}{
		{PolicyYolo, Approved},
		{PolicyNever, Rejected},
		{PolicyOnRequest, Rejected},
		{PolicyAutoEdit, Rejected},
		{PolicyAuto, Rejected},
		{PolicyOnFailure, Rejected},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			e, _ := newTestEngine(t, tt.policy)
			d := e.CheckApproval(ApprovalContext{ToolName: "shell", IsMutating: true, Command: "rm -rf /"})
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestCheckApproval_SafeAndUnknownCommands(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		command   string
		dangerous bool
		want      Decision
	}{
		{"never allows safe", PolicyNever, "ls -la", false, Approved},
		{"never rejects unknown", PolicyNever, "make install", false, Rejected},
		{"auto approves unknown", PolicyAuto, "make install", true, Approved},
		{"on-failure approves unknown", PolicyOnFailure, "make install", true, Approved},
		{"on-request approves safe", PolicyOnRequest, "git diff", true, Approved},
		{"on-request falls through to danger flag", PolicyOnRequest, "make install", true, NeedsConfirmation},
		{"on-request falls through to approval", PolicyOnRequest, "make install", false, Approved},
		{"auto-edit falls through to danger flag", PolicyAutoEdit, "npm install", true, NeedsConfirmation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, tt.policy)
			d := e.CheckApproval(ApprovalContext{
				ToolName:    "shell",
				IsMutating:  true,
				Command:     tt.command,
				IsDangerous: tt.dangerous,
			})
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestCheckApproval_Paths(t *testing.T) {
	e, cwd := newTestEngine(t, PolicyOnRequest)

	tests := []struct {
		name string
		path string
		want Decision
	}{
		{"relative inside", "internal/main.go", Approved},
		{"absolute inside", filepath.Join(cwd, "a", "b.txt"), Approved},
		{"cwd itself", cwd, Approved},
		{"parent escape", "../outside.txt", NeedsConfirmation},
		{"absolute outside", "/etc/passwd", NeedsConfirmation},
		{"sibling with shared prefix", cwd + "-other/file", NeedsConfirmation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.CheckApproval(ApprovalContext{
				ToolName:      "write_file",
				IsMutating:    true,
				AffectedPaths: []string{tt.path},
			})
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestCheckApproval_DangerFlag(t *testing.T) {
	e, _ := newTestEngine(t, PolicyAutoEdit)
	ac := ApprovalContext{ToolName: "write_file", IsMutating: true, AffectedPaths: []string{"x.go"}, IsDangerous: true}
	assert.Equal(t, NeedsConfirmation, e.CheckApproval(ac))

	yolo, _ := newTestEngine(t, PolicyYolo)
	assert.Equal(t, Approved, yolo.CheckApproval(ac))

	// Path checks run before the danger flag, even under yolo.
	ac.AffectedPaths = []string{"/etc/hosts"}
	assert.Equal(t, NeedsConfirmation, yolo.CheckApproval(ac))
}

func TestRequestConfirmation_NoConfirmerApproves(t *testing.T) {
	e, _ := newTestEngine(t, PolicyOnRequest)
	ok, err := e.RequestConfirmation(context.Background(), &tool.Confirmation{ToolName: "write_file"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRequestConfirmation_Delegates(t *testing.T) {
	var seen *tool.Confirmation
	confirmer := ConfirmerFunc(func(ctx context.Context, c *tool.Confirmation) (bool, error) {
		seen = c
		return false, nil
	})
	e, _ := newTestEngine(t, PolicyOnRequest, WithConfirmer(confirmer))

	c := &tool.Confirmation{ToolName: "shell", Command: "make"}
	ok, err := e.RequestConfirmation(context.Background(), c)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Same(t, c, seen)
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "approved", Approved.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "needs_confirmation", NeedsConfirmation.String())
}
