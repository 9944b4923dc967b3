// Package builtin provides the tools registered in every session: file
// reading, writing and editing, directory listing, search, shell execution
// and a session todo list.
package builtin

import (
	"github.com/Cyclone1070/drift/internal/config"
	"github.com/Cyclone1070/drift/internal/executor"
	"github.com/Cyclone1070/drift/internal/tool"
)

// Defaults returns the built-in tools configured from cfg.
func Defaults(cfg *config.Config, runner executor.Runner) []tool.Tool {
	return []tool.Tool{
		NewReadFileTool(cfg.Tools),
		NewWriteFileTool(cfg.Tools),
		NewEditFileTool(cfg.Tools),
		NewListDirTool(cfg.Tools),
		NewGrepTool(),
		NewGlobTool(),
		NewShellTool(runner, cfg.Tools, cfg.ShellEnvironment),
		NewTodosTool(&TodoList{}),
	}
}
