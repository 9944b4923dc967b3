package ui

import (
	"context"
	"strings"

	"github.com/Cyclone1070/drift/internal/safety"
	"github.com/Cyclone1070/drift/internal/ui/services"
	"github.com/Cyclone1070/drift/internal/ui/views"
	"github.com/Cyclone1070/drift/internal/workflow"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// chromeHeight is the rows below the viewport: input and status bar.
const chromeHeight = 3

// model implements tea.Model.
type model struct {
	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	renderer MarkdownRenderer
	width    int
	height   int

	transcript []string
	streaming  strings.Builder
	running    bool
	status     string

	canSubmit  bool
	permission *permRequestMsg
	cancelTurn context.CancelFunc

	inputResp chan<- string
	permResp  chan<- safety.PermissionDecision
}

func newModel(inputResp chan<- string, permResp chan<- safety.PermissionDecision, renderer MarkdownRenderer, spinnerFactory SpinnerFactory) *model {
	ti := textinput.New()
	ti.Placeholder = "Ask drift to do something..."
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	if spinnerFactory != nil {
		sp = spinnerFactory()
	}

	return &model{
		input:     ti,
		spinner:   sp,
		viewport:  viewport.New(defaultWidth, 20),
		renderer:  renderer,
		width:     defaultWidth,
		inputResp: inputResp,
		permResp:  permResp,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case inputRequestMsg:
		m.canSubmit = true
		m.input.Prompt = msg.prompt
		return m, nil

	case inputCancelledMsg:
		m.canSubmit = false
		return m, nil

	case permRequestMsg:
		m.permission = &msg
		return m, nil

	case permCancelledMsg:
		m.permission = nil
		return m, nil

	case turnMsg:
		m.cancelTurn = msg.cancel
		return m, nil

	case eventMsg:
		m.handleEvent(msg.ev)
		return m, nil

	case messageMsg:
		m.appendBlock(string(msg))
		return m, nil

	case usageMsg:
		m.status = string(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.permission != nil {
		switch msg.String() {
		case "y":
			m.answer(safety.DecisionAllow)
		case "n", "esc":
			m.answer(safety.DecisionDeny)
		case "a":
			m.answer(safety.DecisionAllowAlways)
		case "ctrl+c":
			m.answer(safety.DecisionDeny)
			m.interrupt()
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		if m.cancelTurn != nil {
			m.interrupt()
			return m, nil
		}
		return m, tea.Quit

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		line := strings.TrimSpace(m.input.Value())
		if !m.canSubmit || line == "" {
			return m, nil
		}
		m.appendBlock(views.UserMessageStyle.Render(m.input.Prompt + line))
		m.input.Reset()
		m.canSubmit = false
		select {
		case m.inputResp <- line:
		default:
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) answer(d safety.PermissionDecision) {
	m.permission = nil
	select {
	case m.permResp <- d:
	default:
	}
}

func (m *model) interrupt() {
	if m.cancelTurn == nil {
		return
	}
	m.cancelTurn()
	m.cancelTurn = nil
	m.appendBlock(views.WarningStyle.Render("Interrupted."))
}

func (m *model) handleEvent(ev workflow.Event) {
	switch e := ev.(type) {
	case workflow.AgentStart:
		m.running = true
	case workflow.TextDelta:
		m.streaming.WriteString(e.Text)
		m.refresh()
	case workflow.TextComplete:
		m.streaming.Reset()
		m.appendBlock(services.RenderMarkdown(e.Text, m.width, m.renderer))
	case workflow.AgentEnd:
		m.running = false
		if m.streaming.Len() > 0 {
			text := m.streaming.String()
			m.streaming.Reset()
			m.appendBlock(text)
		}
	default:
		if line, ok := views.RenderEvent(ev); ok {
			m.appendBlock(line)
		}
	}
}

func (m *model) appendBlock(s string) {
	m.transcript = append(m.transcript, s)
	m.refresh()
}

func (m *model) content() string {
	out := strings.Join(m.transcript, "\n")
	if m.streaming.Len() > 0 {
		if out != "" {
			out += "\n"
		}
		out += m.streaming.String()
	}
	return out
}

func (m *model) refresh() {
	m.viewport.SetContent(m.content())
	m.viewport.GotoBottom()
}

func (m *model) View() string {
	var bottom string
	if m.permission != nil {
		bottom = views.RenderPermission(m.permission.prompt, m.permission.preview)
	} else {
		bottom = m.input.View()
	}
	return m.viewport.View() + "\n" + bottom + "\n" + views.RenderStatusBar(m.running, m.spinner.View(), m.status)
}
