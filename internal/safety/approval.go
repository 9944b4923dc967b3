package safety

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Cyclone1070/drift/internal/tool"
)

// Engine decides whether a tool invocation may run.
type Engine struct {
	policy    Policy
	cwd       string
	confirmer Confirmer
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfirmer sets who is asked when a decision needs confirmation.
func WithConfirmer(c Confirmer) Option {
	return func(e *Engine) { e.confirmer = c }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an approval engine rooted at cwd.
func NewEngine(policy Policy, cwd string, opts ...Option) *Engine {
	if abs, err := filepath.Abs(cwd); err == nil {
		cwd = abs
	}
	e := &Engine{
		policy: policy,
		cwd:    filepath.Clean(cwd),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the active policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// CheckApproval classifies an invocation. A command that is neither
// approved nor rejected by the command rules falls through to the path
// and danger checks.
func (e *Engine) CheckApproval(ac ApprovalContext) Decision {
	if !ac.IsMutating {
		return Approved
	}

	if ac.Command != "" {
		if d := e.checkCommand(ac.Command); d != NeedsConfirmation {
			return d
		}
	}

	for _, p := range ac.AffectedPaths {
		if !e.withinCwd(p) {
			e.logger.Warn("path outside working directory", "tool", ac.ToolName, "path", p, "cwd", e.cwd)
			return NeedsConfirmation
		}
	}

	if ac.IsDangerous {
		if e.policy == PolicyYolo {
			e.logger.Warn("yolo policy: approving dangerous action", "tool", ac.ToolName)
			return Approved
		}
		return NeedsConfirmation
	}

	return Approved
}

func (e *Engine) checkCommand(command string) Decision {
	switch {
	case e.policy == PolicyYolo:
		return Approved
	case IsDangerousCommand(command):
		return Rejected
	}

	switch e.policy {
	case PolicyNever:
		if IsSafeCommand(command) {
			return Approved
		}
		return Rejected
	case PolicyAuto, PolicyOnFailure:
		return Approved
	default:
		if IsSafeCommand(command) {
			return Approved
		}
		return NeedsConfirmation
	}
}

func (e *Engine) withinCwd(p string) bool {
	if !filepath.IsAbs(p) {
		p = filepath.Join(e.cwd, p)
	}
	rel, err := filepath.Rel(e.cwd, filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// RequestConfirmation asks the configured confirmer. Without one the
// action is approved and a warning is logged.
func (e *Engine) RequestConfirmation(ctx context.Context, c *tool.Confirmation) (bool, error) {
	if e.confirmer == nil {
		e.logger.WarnContext(ctx, "no confirmer configured, auto-approving", "tool", c.ToolName)
		return true, nil
	}
	return e.confirmer.Confirm(ctx, c)
}
