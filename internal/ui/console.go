// Package ui holds the terminal front ends. TUI is the full-screen
// bubbletea interface; Console is the line-oriented fallback for pipes and
// dumb terminals.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/Cyclone1070/drift/internal/provider/models"
	"github.com/Cyclone1070/drift/internal/safety"
	"github.com/Cyclone1070/drift/internal/ui/services"
	"github.com/Cyclone1070/drift/internal/ui/views"
	"github.com/Cyclone1070/drift/internal/workflow"
	"golang.org/x/term"
)

const defaultWidth = 100

// ErrInputClosed is returned once the input stream has ended.
var ErrInputClosed = errors.New("input closed")

// Console reads lines from in and writes rendered output to out. Writes are
// serialized so permission prompts never interleave with event output.
type Console struct {
	out      io.Writer
	renderer MarkdownRenderer
	width    int

	lines chan string
	errs  chan error

	mu        sync.Mutex
	streaming bool
}

// Option configures a Console.
type Option func(*Console)

// WithRenderer renders final answers as markdown instead of streaming
// raw deltas.
func WithRenderer(r MarkdownRenderer) Option {
	return func(c *Console) { c.renderer = r }
}

func WithWidth(w int) Option {
	return func(c *Console) {
		if w > 0 {
			c.width = w
		}
	}
}

// NewConsole starts reading lines from in in the background.
func NewConsole(in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		out:   out,
		width: defaultWidth,
		lines: make(chan string),
		errs:  make(chan error, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.readLines(in)
	return c
}

// TerminalWidth returns the width of f when it is a terminal.
func TerminalWidth(f *os.File) (int, bool) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0, false
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth, true
	}
	return w, true
}

func (c *Console) readLines(in io.Reader) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		c.lines <- sc.Text()
	}
	err := sc.Err()
	if err == nil {
		err = ErrInputClosed
	}
	c.errs <- err
	close(c.lines)
}

func (c *Console) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			select {
			case err := <-c.errs:
				c.errs <- err
				return "", err
			default:
				return "", ErrInputClosed
			}
		}
		return line, nil
	}
}

// ReadInput prompts for a user message. Blank lines are skipped.
func (c *Console) ReadInput(ctx context.Context, prompt string) (string, error) {
	for {
		c.write(views.UserMessageStyle.Render(prompt))
		line, err := c.readLine(ctx)
		if err != nil {
			return "", err
		}
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
}

// ReadPermission implements safety.Prompter. It accepts y/yes, n/no and
// a/always; anything else asks again. A closed input denies.
func (c *Console) ReadPermission(ctx context.Context, prompt string, preview string) (safety.PermissionDecision, error) {
	c.endStream()
	c.writeln(views.RenderPermission(prompt, preview))

	for {
		c.write("> ")
		line, err := c.readLine(ctx)
		if err != nil {
			return safety.DecisionDeny, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return safety.DecisionAllow, nil
		case "n", "no":
			return safety.DecisionDeny, nil
		case "a", "always":
			return safety.DecisionAllowAlways, nil
		}
	}
}

// TurnContext cancels the run on SIGINT.
func (c *Console) TurnContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

// Render writes one workflow event.
func (c *Console) Render(ev workflow.Event) {
	switch e := ev.(type) {
	case workflow.TextDelta:
		if c.renderer != nil {
			return
		}
		c.mu.Lock()
		c.streaming = true
		fmt.Fprint(c.out, e.Text)
		c.mu.Unlock()
	case workflow.TextComplete:
		if c.renderer == nil {
			c.endStream()
			return
		}
		c.writeln(services.RenderMarkdown(e.Text, c.width, c.renderer))
	default:
		if line, ok := views.RenderEvent(ev); ok {
			c.endStream()
			c.writeln(line)
		}
	}
}

// Consume renders events until the channel closes or AgentEnd arrives.
func (c *Console) Consume(events <-chan workflow.Event) {
	for ev := range events {
		c.Render(ev)
		if _, ok := ev.(workflow.AgentEnd); ok {
			c.endStream()
			return
		}
	}
}

// WriteUsage prints the usage line.
func (c *Console) WriteUsage(total models.TokenUsage, model string, latest, window int) {
	line := views.RenderUsage(total, model)
	if ctxLine := views.RenderContextUsage(latest, window); ctxLine != "" {
		line += "  " + ctxLine
	}
	c.writeln(line)
}

// WriteMessage prints a plain line.
func (c *Console) WriteMessage(msg string) {
	c.endStream()
	c.writeln(msg)
}

func (c *Console) endStream() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.streaming {
		fmt.Fprintln(c.out)
		c.streaming = false
	}
}

func (c *Console) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, s)
}

func (c *Console) writeln(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}
