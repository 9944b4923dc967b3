package views

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("39")
	ColorSuccess = lipgloss.Color("42")
	ColorWarning = lipgloss.Color("214")
	ColorError   = lipgloss.Color("196")
	ColorDim     = lipgloss.Color("241")

	UserMessageStyle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	ToolCallStyle    = lipgloss.NewStyle().Foreground(ColorPrimary)
	ToolDoneStyle    = lipgloss.NewStyle().Foreground(ColorSuccess)
	ToolFailedStyle  = lipgloss.NewStyle().Foreground(ColorError)
	ErrorStyle       = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	WarningStyle     = lipgloss.NewStyle().Foreground(ColorWarning)
	DimStyle         = lipgloss.NewStyle().Foreground(ColorDim)

	StatusThinkingStyle = lipgloss.NewStyle().Foreground(ColorWarning)

	PermissionBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorWarning).
				Padding(0, 1)
	DangerBoxStyle = PermissionBoxStyle.BorderForeground(ColorError)
)
