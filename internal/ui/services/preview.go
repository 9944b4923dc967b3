package services

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/drift/internal/tool"
)

const maxSummaryLen = 120

// FormatToolDescription generates a short description of a tool call from
// its arguments.
func FormatToolDescription(name string, args map[string]any) string {
	str := func(key string) string {
		s, _ := args[key].(string)
		return s
	}

	switch name {
	case "read_file", "write_file":
		if p := str("path"); p != "" {
			return fmt.Sprintf("%s %s", name, p)
		}
	case "list_dir":
		p := str("path")
		if p == "" {
			p = "."
		}
		return fmt.Sprintf("list_dir %s", p)
	case "grep", "glob":
		if p := str("pattern"); p != "" {
			return fmt.Sprintf("%s '%s'", name, p)
		}
	case "shell":
		if cmd := str("command"); cmd != "" {
			return fmt.Sprintf("shell '%s'", truncate(firstLine(cmd), maxSummaryLen))
		}
	}

	if strings.HasPrefix(name, "subagent_") {
		if g := str("goal"); g != "" {
			return fmt.Sprintf("%s: %s", strings.TrimPrefix(name, "subagent_"), truncate(firstLine(g), maxSummaryLen))
		}
	}
	return name
}

// FormatResultSummary renders a one-line outcome for a finished call.
func FormatResultSummary(res tool.Result) string {
	if !res.Success {
		return truncate(firstLine(res.Error), maxSummaryLen)
	}
	if res.ExitCode != nil {
		return fmt.Sprintf("exit %d", *res.ExitCode)
	}
	lines := strings.Count(res.Output, "\n") + 1
	if strings.TrimSpace(res.Output) == "" {
		return "done"
	}
	if lines == 1 {
		return truncate(res.Output, maxSummaryLen)
	}
	return fmt.Sprintf("%d lines", lines)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
