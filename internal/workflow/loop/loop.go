package loop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Cyclone1070/drift/internal/loopdetect"
	"github.com/Cyclone1070/drift/internal/prompt"
	"github.com/Cyclone1070/drift/internal/provider/models"
	"github.com/Cyclone1070/drift/internal/session"
	"github.com/Cyclone1070/drift/internal/workflow"
)

// ErrMaxTurns is returned when the turn budget ran out before the model
// produced a final answer.
var ErrMaxTurns = errors.New("maximum turns reached")

// Loop drives one session through think, call tools, observe turns.
// A Loop is not safe for concurrent Runs.
type Loop struct {
	client      models.StreamClient
	session     *session.Session
	tools       toolInvoker
	compactor   summarizer
	detector    *loopdetect.Detector
	hooks       lifecycleHooks
	events      chan<- workflow.Event
	maxTurns    int
	temperature *float32
	logger      *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithCompactor enables compaction once usage approaches the context window.
func WithCompactor(c summarizer) Option {
	return func(l *Loop) { l.compactor = c }
}

// WithLoopDetector replaces the default detector.
func WithLoopDetector(d *loopdetect.Detector) Option {
	return func(l *Loop) { l.detector = d }
}

func WithHooks(h lifecycleHooks) Option {
	return func(l *Loop) { l.hooks = h }
}

func WithTemperature(t *float32) Option {
	return func(l *Loop) { l.temperature = t }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// NewLoop creates a loop. events may be nil; otherwise the caller must keep
// draining it until AgentEnd arrives.
func NewLoop(client models.StreamClient, sess *session.Session, tools toolInvoker, events chan<- workflow.Event, maxTurns int, opts ...Option) *Loop {
	l := &Loop{
		client:   client,
		session:  sess,
		tools:    tools,
		events:   events,
		maxTurns: maxTurns,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.detector == nil {
		l.detector = loopdetect.New()
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// turn is what one streamed completion produced.
type turn struct {
	text  string
	calls []models.ToolCall
	usage *models.TokenUsage
}

// Run processes one user message until the model answers without tool
// calls, the turn budget runs out, or ctx is cancelled. AgentEnd is always
// the last event.
func (l *Loop) Run(ctx context.Context, message string) error {
	store := l.session.Context

	if l.hooks != nil {
		l.hooks.BeforeAgent(ctx, message)
	}
	l.emit(workflow.AgentStart{Message: message})
	store.AddUserMessage(message)

	var final string
	defer func() {
		if l.hooks != nil {
			l.hooks.AfterAgent(context.WithoutCancel(ctx), message, final)
		}
		l.emit(workflow.AgentEnd{Response: final})
	}()

	for range l.maxTurns {
		if err := ctx.Err(); err != nil {
			l.fail(ctx, fmt.Sprintf("Cancelled: %v", err))
			return err
		}

		n := l.session.IncrementTurn()
		l.logger.DebugContext(ctx, "turn started", "session", l.session.ID, "turn", n)
		l.compactIfNeeded(ctx)

		t, err := l.stream(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				l.fail(ctx, fmt.Sprintf("Cancelled: %v", ctxErr))
				return ctxErr
			}
			l.fail(ctx, fmt.Sprintf("Stream error: %v", err))
			return err
		}

		store.AddAssistantMessage(t.text, t.calls)
		if t.text != "" {
			final = t.text
			l.emit(workflow.TextComplete{Text: t.text})
			l.detector.RecordResponse(t.text)
		}

		if len(t.calls) == 0 {
			l.recordUsage(t.usage)
			l.prune(ctx)
			return nil
		}

		l.runTools(ctx, t.calls)

		if desc := l.detector.CheckForLoop(); desc != "" {
			l.logger.WarnContext(ctx, "loop detected", "description", desc)
			store.AddUserMessage(prompt.LoopBreaker(desc))
			l.emit(workflow.LoopDetected{Description: desc})
		}

		l.recordUsage(t.usage)
		l.prune(ctx)
	}

	msg := fmt.Sprintf("Maximum turns (%d) reached. Consider breaking the task into smaller steps.", l.maxTurns)
	l.fail(ctx, msg)
	return fmt.Errorf("%w (%d)", ErrMaxTurns, l.maxTurns)
}

// stream runs one completion. In-band error events are forwarded and
// consumption continues; only failing to open the stream or cancellation
// is returned.
func (l *Loop) stream(ctx context.Context) (turn, error) {
	store := l.session.Context
	req := &models.Request{
		System:      store.SystemPrompt(),
		Messages:    store.History(),
		Tools:       l.tools.Declarations(),
		Temperature: l.temperature,
	}

	var t turn
	s, err := l.client.Stream(ctx, req)
	if err != nil {
		return t, fmt.Errorf("open stream: %w", err)
	}
	defer s.Close()

	var text strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return t, err
		}
		ev, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return t, ctx.Err()
			}
			l.fail(ctx, err.Error())
			break
		}

		switch ev.Type {
		case models.EventTextDelta:
			text.WriteString(ev.Content)
			l.emit(workflow.TextDelta{Text: ev.Content})
		case models.EventToolCallComplete:
			if ev.ToolCall != nil {
				t.calls = append(t.calls, *ev.ToolCall)
			}
		case models.EventMessageComplete:
			if ev.Usage != nil {
				t.usage = ev.Usage
			}
		case models.EventError:
			l.fail(ctx, ev.Error)
		}
	}

	t.text = text.String()
	return t, nil
}

// runTools invokes calls sequentially in received order, then appends all
// results in the same order.
func (l *Loop) runTools(ctx context.Context, calls []models.ToolCall) {
	outputs := make([]string, len(calls))
	failed := 0

	for i, call := range calls {
		l.emit(workflow.ToolCallStart{CallID: call.ID, Name: call.Name, Arguments: call.Arguments})
		l.detector.RecordToolCall(call.Name, call.Arguments)

		res := l.tools.Invoke(ctx, call.Name, call.Arguments)
		if !res.Success {
			failed++
		}
		outputs[i] = res.ToModelOutput()

		l.emit(workflow.ToolCallComplete{CallID: call.ID, Name: call.Name, Result: res})
	}

	for i, call := range calls {
		l.session.Context.AddToolResult(call.ID, call.Name, outputs[i])
	}

	if failed > 0 {
		l.logger.WarnContext(ctx, "tool calls failed", "failed", failed, "total", len(calls))
	}
}

func (l *Loop) compactIfNeeded(ctx context.Context) {
	store := l.session.Context
	if l.compactor == nil || !store.NeedsCompression() {
		return
	}

	before := store.Len()
	summary, usage := l.compactor.Summarize(ctx, store.Messages())
	if summary == nil {
		l.logger.WarnContext(ctx, "compaction produced no summary, continuing with full history")
		return
	}

	store.ReplaceWithSummary(*summary)
	var u models.TokenUsage
	if usage != nil {
		u = *usage
		store.AddUsage(u)
		store.SetLatestUsage(u)
	}

	l.emit(workflow.Compacted{Before: before, After: store.Len(), Usage: u})
}

func (l *Loop) recordUsage(u *models.TokenUsage) {
	if u == nil {
		return
	}
	l.session.Context.SetLatestUsage(*u)
	l.session.Context.AddUsage(*u)
}

func (l *Loop) prune(ctx context.Context) {
	if n := l.session.Context.PruneToolOutputs(); n > 0 {
		l.logger.DebugContext(ctx, "pruned tool outputs", "messages", n)
	}
}

// fail emits an AgentError and fires the on_error hook.
func (l *Loop) fail(ctx context.Context, msg string) {
	l.emit(workflow.AgentError{Message: msg})
	if l.hooks != nil {
		l.hooks.OnError(context.WithoutCancel(ctx), errors.New(msg))
	}
}

func (l *Loop) emit(ev workflow.Event) {
	if l.events != nil {
		l.events <- ev
	}
}
