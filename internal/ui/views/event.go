package views

import (
	"fmt"

	"github.com/Cyclone1070/drift/internal/ui/services"
	"github.com/Cyclone1070/drift/internal/workflow"
	"github.com/dustin/go-humanize"
)

// RenderEvent renders the status line for ev. Text events are handled by
// the console; ok is false for events that have no line of their own.
func RenderEvent(ev workflow.Event) (line string, ok bool) {
	switch e := ev.(type) {
	case workflow.ToolCallStart:
		return ToolCallStyle.Render("● " + services.FormatToolDescription(e.Name, e.Arguments)), true
	case workflow.ToolCallComplete:
		summary := services.FormatResultSummary(e.Result)
		if e.Result.Success {
			return ToolDoneStyle.Render("  ✔ " + summary), true
		}
		return ToolFailedStyle.Render("  ✘ " + summary), true
	case workflow.AgentError:
		return ErrorStyle.Render("Error: " + e.Message), true
	case workflow.LoopDetected:
		return WarningStyle.Render("⚠ Loop detected: " + e.Description), true
	case workflow.Compacted:
		return DimStyle.Render(fmt.Sprintf("Context compacted: %d → %d messages (%s tokens)",
			e.Before, e.After, humanize.Comma(int64(e.Usage.TotalTokens)))), true
	default:
		return "", false
	}
}
