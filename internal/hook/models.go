package hook

import (
	"time"

	"github.com/Cyclone1070/drift/internal/config"
)

// Trigger is a lifecycle point at which hooks run.
type Trigger string

const (
	BeforeAgent Trigger = "before_agent"
	AfterAgent  Trigger = "after_agent"
	BeforeTool  Trigger = "before_tool"
	AfterTool   Trigger = "after_tool"
	OnError     Trigger = "on_error"
)

// DefaultTimeout applies to hooks without timeout_sec.
const DefaultTimeout = 30 * time.Second

// Hook is a resolved, enabled hook definition.
type Hook struct {
	Name    string
	Trigger Trigger
	Command string
	Script  string
	Timeout time.Duration
}

func fromConfig(hc config.HookConfig) Hook {
	timeout := DefaultTimeout
	if hc.TimeoutSeconds > 0 {
		timeout = time.Duration(hc.TimeoutSeconds) * time.Second
	}
	name := hc.Name
	if name == "" {
		name = hc.Trigger
	}
	return Hook{
		Name:    name,
		Trigger: Trigger(hc.Trigger),
		Command: hc.Command,
		Script:  hc.Script,
		Timeout: timeout,
	}
}
