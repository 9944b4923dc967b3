package subagent

import "time"

const (
	DefaultMaxTurns = 20
	DefaultTimeout  = 600 * time.Second
)

// Definition configures one kind of sub-agent. A nil AllowedTools grants
// every registered tool.
type Definition struct {
	Name         string
	Description  string
	GoalPrompt   string
	AllowedTools []string
	MaxTurns     int
	Timeout      time.Duration
}

// withDefaults fills unset limits.
func (d Definition) withDefaults() Definition {
	if d.MaxTurns <= 0 {
		d.MaxTurns = DefaultMaxTurns
	}
	if d.Timeout <= 0 {
		d.Timeout = DefaultTimeout
	}
	return d
}

// Defaults returns the built-in sub-agents.
func Defaults() []Definition {
	return []Definition{
		{
			Name:        "codebase_investigator",
			Description: "Investigates the codebase to answer questions about code structure, patterns, and implementations",
			GoalPrompt: `You are a codebase investigation specialist.
Your job is to explore and understand code to answer questions.
Use read_file, grep, glob, and list_dir to investigate.
Do NOT modify any files.`,
			AllowedTools: []string{"read_file", "grep", "glob", "list_dir"},
		},
		{
			Name:        "code_reviewer",
			Description: "Reviews code changes and provides feedback on quality, bugs, and improvements",
			GoalPrompt: `You are a code review specialist.
Your job is to review code and provide constructive feedback.
Look for bugs, code smells, security issues, and improvement opportunities.
Use read_file, list_dir and grep to examine the code.
Do NOT modify any files.`,
			AllowedTools: []string{"read_file", "grep", "list_dir"},
			MaxTurns:     10,
			Timeout:      300 * time.Second,
		},
	}
}
