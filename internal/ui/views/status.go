package views

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/drift/internal/provider/models"
	"github.com/dustin/go-humanize"
)

// RenderUsage renders cumulative token usage, with the model name when set.
func RenderUsage(u models.TokenUsage, model string) string {
	parts := []string{
		fmt.Sprintf("in %s", humanize.Comma(int64(u.PromptTokens))),
		fmt.Sprintf("out %s", humanize.Comma(int64(u.CompletionTokens))),
	}
	if u.CachedTokens > 0 {
		parts = append(parts, fmt.Sprintf("cached %s", humanize.Comma(int64(u.CachedTokens))))
	}
	line := "tokens: " + strings.Join(parts, " · ")
	if model != "" {
		line = model + "  " + line
	}
	return DimStyle.Render(line)
}

// RenderContextUsage renders how much of the context window the last
// request used.
func RenderContextUsage(used, window int) string {
	if window <= 0 {
		return ""
	}
	pct := float64(used) / float64(window) * 100
	return DimStyle.Render(fmt.Sprintf("context: %s / %s (%.0f%%)",
		humanize.Comma(int64(used)), humanize.Comma(int64(window)), pct))
}

// RenderStatusBar shows the spinner while the agent runs, then the usage
// line of the last turn.
func RenderStatusBar(running bool, spinner, usage string) string {
	if running {
		return StatusThinkingStyle.Render(spinner + " Working... (ctrl+c to interrupt)")
	}
	if usage == "" {
		return DimStyle.Render("Ready")
	}
	return usage
}

// RenderPermission renders a pending permission prompt with its preview.
func RenderPermission(prompt, preview string) string {
	body := prompt
	if preview != "" {
		body += "\n\n" + preview
	}
	return PermissionBoxStyle.Render(body) + "\n" + WarningStyle.Render("[y]es / [n]o / [a]lways")
}
