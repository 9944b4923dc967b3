package safety

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Cyclone1070/drift/internal/tool"
)

// PermissionDecision represents the user's choice for a permission request
type PermissionDecision string

const (
	DecisionAllow       PermissionDecision = "allow"
	DecisionDeny        PermissionDecision = "deny"
	DecisionAllowAlways PermissionDecision = "allow_always"
)

// Prompter asks the user for a permission decision. preview is shown
// verbatim and may be empty.
type Prompter interface {
	ReadPermission(ctx context.Context, prompt string, preview string) (PermissionDecision, error)
}

// SessionConfirmer prompts the user and remembers "always allow" answers
// for the rest of the session. Shell commands are remembered by the set of
// programs they run, other tools by name. Commands that write through a
// redirection or run a computed program are never remembered.
type SessionConfirmer struct {
	prompter     Prompter
	mu           sync.RWMutex
	sessionAllow map[string]bool
}

// NewSessionConfirmer creates a confirmer backed by prompter.
func NewSessionConfirmer(prompter Prompter) *SessionConfirmer {
	return &SessionConfirmer{
		prompter:     prompter,
		sessionAllow: make(map[string]bool),
	}
}

// Confirm implements Confirmer.
func (s *SessionConfirmer) Confirm(ctx context.Context, c *tool.Confirmation) (bool, error) {
	key, remember := allowKey(c)

	if remember {
		s.mu.RLock()
		allowed := s.sessionAllow[key]
		s.mu.RUnlock()
		if allowed {
			return true, nil
		}
	}

	decision, err := s.prompter.ReadPermission(ctx, promptFor(c), previewFor(c))
	if err != nil {
		return false, fmt.Errorf("failed to get user permission: %w", err)
	}

	switch decision {
	case DecisionAllow:
		return true, nil
	case DecisionDeny:
		return false, nil
	case DecisionAllowAlways:
		if remember {
			s.mu.Lock()
			s.sessionAllow[key] = true
			s.mu.Unlock()
		}
		return true, nil
	default:
		return false, fmt.Errorf("invalid permission decision: %s", decision)
	}
}

// allowKey names what an "always allow" answer covers. For
// "/usr/bin/docker run x && ls" the key is "shell:docker,ls".
func allowKey(c *tool.Confirmation) (string, bool) {
	if c.Command == "" {
		return c.ToolName, true
	}
	names, ok := commandNames(c.Command)
	if !ok {
		return "", false
	}
	return c.ToolName + ":" + strings.Join(names, ","), true
}

func promptFor(c *tool.Confirmation) string {
	var b strings.Builder
	if c.Command != "" {
		fmt.Fprintf(&b, "Agent wants to execute shell command: %s", c.Command)
	} else {
		fmt.Fprintf(&b, "Agent wants to use tool: %s", c.ToolName)
		if c.Description != "" {
			fmt.Fprintf(&b, " (%s)", c.Description)
		}
	}
	if c.IsDangerous {
		b.WriteString("\nWARNING: this action is flagged as dangerous.")
	}
	for _, p := range c.AffectedPaths {
		fmt.Fprintf(&b, "\n  path: %s", p)
	}
	b.WriteString("\nAllow?")
	return b.String()
}

func previewFor(c *tool.Confirmation) string {
	if c.Diff != nil {
		return c.Diff.Unified()
	}
	return ""
}
