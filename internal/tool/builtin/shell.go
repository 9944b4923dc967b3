package builtin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Cyclone1070/drift/internal/config"
	"github.com/Cyclone1070/drift/internal/executor"
	"github.com/Cyclone1070/drift/internal/safety"
	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/dustin/go-humanize"
)

// blockedCommands are refused outright, matched as lowercase substrings.
var blockedCommands = []string{
	"rm -rf /",
	"rm -rf ~",
	"rm -rf /*",
	"dd if=/dev/zero",
	"dd if=/dev/random",
	"mkfs",
	"fdisk",
	"parted",
	":(){ :|:& };:",
	"chmod 777 /",
	"chmod -R 777",
	"shutdown",
	"reboot",
	"halt",
	"poweroff",
	"init 0",
	"init 6",
}

const shellPath = "/bin/bash"

type ShellParams struct {
	Command string `mapstructure:"command"`
	Timeout int    `mapstructure:"timeout"`
	Cwd     string `mapstructure:"cwd"`
}

func (p *ShellParams) Validate() error {
	if strings.TrimSpace(p.Command) == "" {
		return errors.New("command is empty")
	}
	if p.Timeout < 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// ShellTool runs a command with bash in its own process group.
type ShellTool struct {
	tool.Base[ShellParams]
	runner         executor.Runner
	env            config.ShellEnvironmentConfig
	defaultTimeout int
	maxTimeout     int
	maxOutputBytes int
	environ        func() []string
}

func NewShellTool(runner executor.Runner, tools config.ToolsConfig, env config.ShellEnvironmentConfig) *ShellTool {
	return &ShellTool{
		Base: tool.NewBase[ShellParams](
			"shell",
			"Execute a shell command with bash. Returns stdout, stderr and the exit code. "+
				"Use for running builds, tests, git and other command line tools.",
			tool.KindShell,
			&tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"command": {Type: tool.TypeString, Description: "The command to execute"},
					"timeout": {Type: tool.TypeInteger, Description: fmt.Sprintf("Timeout in seconds. Defaults to %d, at most %d", tools.DefaultShellTimeout, tools.MaxShellTimeout)},
					"cwd":     {Type: tool.TypeString, Description: "Working directory, relative to the workspace"},
				},
				Required: []string{"command"},
			},
		),
		runner:         runner,
		env:            env,
		defaultTimeout: tools.DefaultShellTimeout,
		maxTimeout:     tools.MaxShellTimeout,
		maxOutputBytes: tools.MaxOutputBytes,
		environ:        environ,
	}
}

// IsBlocked reports whether command contains a blocked pattern.
func IsBlocked(command string) bool {
	lower := strings.ToLower(command)
	for _, b := range blockedCommands {
		if strings.Contains(lower, strings.ToLower(b)) {
			return true
		}
	}
	return false
}

func (t *ShellTool) GetConfirmation(ctx context.Context, inv tool.Invocation) *tool.Confirmation {
	command, _ := inv.Params["command"].(string)
	blocked := IsBlocked(command)

	desc := "Execute: " + command
	if blocked {
		desc = "Execute (BLOCKED): " + command
	}
	return &tool.Confirmation{
		ToolName:    t.Name(),
		Description: desc,
		Params:      inv.Params,
		Command:     command,
		IsDangerous: blocked || safety.IsDangerousCommand(command) || !safety.IsSafeCommand(command),
	}
}

func (t *ShellTool) Execute(ctx context.Context, inv tool.Invocation) (tool.Result, error) {
	p, err := t.Decode(inv.Params)
	if err != nil {
		return tool.Result{}, err
	}

	if IsBlocked(p.Command) {
		return tool.ErrorResult("Command blocked for safety: %s", p.Command).
			WithMetadata("blocked", true), nil
	}

	dir := inv.Cwd
	if p.Cwd != "" {
		dir = resolve(inv.Cwd, p.Cwd)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return tool.ErrorResult("Working directory doesn't exist: %s", dir), nil
	}

	timeout := p.Timeout
	if timeout == 0 {
		timeout = t.defaultTimeout
	}
	if t.maxTimeout > 0 && timeout > t.maxTimeout {
		timeout = t.maxTimeout
	}

	res, err := t.runner.Run(ctx, executor.Spec{
		Args:           []string{shellPath, "-c", p.Command},
		Dir:            dir,
		Env:            shellEnv(t.environ(), t.env),
		Timeout:        time.Duration(timeout) * time.Second,
		MaxOutputBytes: t.maxOutputBytes,
	})
	switch {
	case errors.Is(err, executor.ErrTimeout):
		return tool.ErrorResult("Command timed out after %ds", timeout).
			WithOutput(formatShellOutput(res, t.maxOutputBytes)).
			WithMetadata("timed_out", true), nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return tool.Result{}, err
	case err != nil:
		return tool.ErrorResult("Failed to execute command: %v", err), nil
	}

	code := res.ExitCode
	out := tool.Result{
		Success:   code == 0,
		Output:    formatShellOutput(res, t.maxOutputBytes),
		Truncated: res.Truncated,
		ExitCode:  &code,
	}
	if code != 0 {
		out.Error = strings.TrimRight(res.Stderr, "\n")
		if out.Error == "" {
			out.Error = fmt.Sprintf("Exit code: %d", code)
		}
	}
	return out.WithMetadata("exit_code", code).WithMetadata("cwd", dir), nil
}

func formatShellOutput(res *executor.Result, maxBytes int) string {
	if res == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.TrimRight(res.Stdout, "\n"))
	if stderr := strings.TrimRight(res.Stderr, "\n"); stderr != "" {
		b.WriteString("\n--- stderr ---\n")
		b.WriteString(stderr)
	}
	if res.ExitCode != 0 && !res.TimedOut {
		fmt.Fprintf(&b, "\nExit code: %d", res.ExitCode)
	}
	if res.Truncated {
		fmt.Fprintf(&b, "\n... [output truncated at %s]", humanize.IBytes(uint64(maxBytes)))
	}
	return b.String()
}
