package safety

import (
	"context"
	"fmt"

	"github.com/Cyclone1070/drift/internal/tool"
)

// Policy controls how aggressively mutating actions are auto-approved.
type Policy string

const (
	PolicyOnRequest Policy = "on-request"
	PolicyOnFailure Policy = "on-failure"
	PolicyAuto      Policy = "auto"
	PolicyAutoEdit  Policy = "auto-edit"
	PolicyNever     Policy = "never"
	PolicyYolo      Policy = "yolo"
)

// ParsePolicy converts a configuration value into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyOnRequest, PolicyOnFailure, PolicyAuto, PolicyAutoEdit, PolicyNever, PolicyYolo:
		return p, nil
	case "":
		return PolicyOnRequest, nil
	default:
		return "", fmt.Errorf("unknown approval policy %q", s)
	}
}

// Decision is the outcome of an approval check.
type Decision int

const (
	Approved Decision = iota
	Rejected
	NeedsConfirmation
)

func (d Decision) String() string {
	switch d {
	case Approved:
		return "approved"
	case Rejected:
		return "rejected"
	case NeedsConfirmation:
		return "needs_confirmation"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// ApprovalContext is built per invocation from the tool and its confirmation.
type ApprovalContext struct {
	ToolName      string
	Params        map[string]any
	IsMutating    bool
	AffectedPaths []string
	Command       string
	IsDangerous   bool
}

// Confirmer asks someone to approve an action. It may block on a human.
type Confirmer interface {
	Confirm(ctx context.Context, c *tool.Confirmation) (bool, error)
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, c *tool.Confirmation) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, c *tool.Confirmation) (bool, error) {
	return f(ctx, c)
}
