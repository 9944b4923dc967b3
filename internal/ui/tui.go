package ui

import (
	"context"
	"sync"

	"github.com/Cyclone1070/drift/internal/provider/models"
	"github.com/Cyclone1070/drift/internal/safety"
	"github.com/Cyclone1070/drift/internal/ui/views"
	"github.com/Cyclone1070/drift/internal/workflow"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// SpinnerFactory creates the busy indicator.
type SpinnerFactory func() spinner.Model

// TUI is the full-screen front end. The agent side talks to the bubbletea
// program through messages and response channels, so ReadInput and
// ReadPermission block the same way they do on the Console.
type TUI struct {
	program *tea.Program
	send    func(tea.Msg)

	inputResp chan string
	permResp  chan safety.PermissionDecision

	done     chan struct{}
	doneOnce sync.Once
}

// Internal message types
type inputRequestMsg struct{ prompt string }
type inputCancelledMsg struct{}
type permRequestMsg struct{ prompt, preview string }
type permCancelledMsg struct{}
type eventMsg struct{ ev workflow.Event }
type messageMsg string
type usageMsg string
type turnMsg struct{ cancel context.CancelFunc }

// NewTUI creates the program. Nothing is drawn until Run.
func NewTUI(renderer MarkdownRenderer, spinnerFactory SpinnerFactory, opts ...tea.ProgramOption) *TUI {
	u := newTUI(nil)
	m := newModel(u.inputResp, u.permResp, renderer, spinnerFactory)
	u.program = tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	u.send = u.program.Send
	return u
}

func newTUI(send func(tea.Msg)) *TUI {
	return &TUI{
		send:      send,
		inputResp: make(chan string, 1),
		permResp:  make(chan safety.PermissionDecision, 1),
		done:      make(chan struct{}),
	}
}

// Run blocks until the program exits, either through Quit or because the
// user pressed Ctrl+C at the prompt.
func (u *TUI) Run() error {
	defer u.close()
	_, err := u.program.Run()
	return err
}

// Quit stops the program.
func (u *TUI) Quit() {
	u.program.Quit()
}

func (u *TUI) close() {
	u.doneOnce.Do(func() { close(u.done) })
}

// ReadInput implements Terminal. It returns ErrInputClosed once the
// program has exited.
func (u *TUI) ReadInput(ctx context.Context, prompt string) (string, error) {
	select {
	case <-u.done:
		return "", ErrInputClosed
	default:
	}

	u.send(inputRequestMsg{prompt: prompt})
	select {
	case line := <-u.inputResp:
		return line, nil
	case <-ctx.Done():
		u.send(inputCancelledMsg{})
		drain(u.inputResp)
		return "", ctx.Err()
	case <-u.done:
		return "", ErrInputClosed
	}
}

// ReadPermission implements safety.Prompter. An exited program denies.
func (u *TUI) ReadPermission(ctx context.Context, prompt string, preview string) (safety.PermissionDecision, error) {
	select {
	case <-u.done:
		return safety.DecisionDeny, ErrInputClosed
	default:
	}

	u.send(permRequestMsg{prompt: prompt, preview: preview})
	select {
	case decision := <-u.permResp:
		return decision, nil
	case <-ctx.Done():
		u.send(permCancelledMsg{})
		drain(u.permResp)
		return safety.DecisionDeny, ctx.Err()
	case <-u.done:
		return safety.DecisionDeny, ErrInputClosed
	}
}

// TurnContext hands the program the cancel func so Ctrl+C during a run
// interrupts it instead of quitting.
func (u *TUI) TurnContext(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(ctx)
	u.send(turnMsg{cancel: cancel})
	return runCtx, func() {
		cancel()
		u.send(turnMsg{})
	}
}

// Consume forwards events to the program until AgentEnd.
func (u *TUI) Consume(events <-chan workflow.Event) {
	for ev := range events {
		u.send(eventMsg{ev: ev})
		if _, ok := ev.(workflow.AgentEnd); ok {
			return
		}
	}
}

// WriteUsage shows usage in the status bar.
func (u *TUI) WriteUsage(total models.TokenUsage, model string, latest, window int) {
	line := views.RenderUsage(total, model)
	if ctxLine := views.RenderContextUsage(latest, window); ctxLine != "" {
		line += "  " + ctxLine
	}
	u.send(usageMsg(line))
}

// WriteMessage appends a line to the transcript.
func (u *TUI) WriteMessage(msg string) {
	u.send(messageMsg(msg))
}

// drain discards an answer that raced with cancellation.
func drain[T any](ch chan T) {
	select {
	case <-ch:
	default:
	}
}
