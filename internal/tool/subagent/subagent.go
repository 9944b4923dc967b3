// Package subagent exposes nested agents as tools. Each call runs a fresh
// session with a restricted tool set and its own turn and time budget.
package subagent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Cyclone1070/drift/internal/prompt"
	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/Cyclone1070/drift/internal/workflow"
)

const (
	TerminationGoal    = "goal"
	TerminationTimeout = "timeout"
	TerminationError   = "error"
)

// Runner runs one nested agent turn sequence.
type Runner interface {
	Run(ctx context.Context, message string) error
}

// Factory builds a runner for def that reports to events. def has its
// limits filled in. The runner must emit workflow.AgentEnd as its final
// event and must not close events.
type Factory func(def Definition, events chan<- workflow.Event) (Runner, error)

type Params struct {
	Goal string `mapstructure:"goal"`
}

// Tool runs the sub-agent described by its definition.
type Tool struct {
	tool.Base[Params]
	def     Definition
	factory Factory
	logger  *slog.Logger
	now     func() time.Time
}

// New creates the tool for def. The tool is named subagent_<def.Name>.
func New(def Definition, factory Factory, logger *slog.Logger) *Tool {
	if logger == nil {
		logger = slog.Default()
	}
	def = def.withDefaults()
	return &Tool{
		Base: tool.NewBase[Params](
			"subagent_"+def.Name,
			def.Description,
			tool.KindMemory,
			&tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"goal": {Type: tool.TypeString, Description: "The specific task or goal for the subagent to accomplish"},
				},
				Required: []string{"goal"},
			},
		),
		def:     def,
		factory: factory,
		logger:  logger,
		now:     time.Now,
	}
}

// IsMutating is always true: a sub-agent consumes model budget.
func (t *Tool) IsMutating(map[string]any) bool {
	return true
}

type outcome struct {
	termination string
	tools       []string
	response    string
	err         string
}

func (t *Tool) Execute(ctx context.Context, inv tool.Invocation) (tool.Result, error) {
	p, err := t.Decode(inv.Params)
	if err != nil {
		return tool.Result{}, err
	}
	if strings.TrimSpace(p.Goal) == "" {
		return tool.ErrorResult("No goal specified for sub-agent"), nil
	}

	o := t.run(ctx, p.Goal)

	text := fmt.Sprintf("Sub-agent '%s' completed.\nTermination: %s\nTools called: %s\n\nResult:\n%s",
		t.def.Name, o.termination, toolList(o.tools), responseOr(o.response))

	res := tool.SuccessResult(text)
	if o.err != "" {
		res = tool.ErrorResult("%s", text)
	}
	return res.
		WithMetadata("termination", o.termination).
		WithMetadata("tools_called", o.tools), nil
}

// run drives the nested agent and folds its events into an outcome. The
// event channel is drained to the end even after an early stop so the
// nested loop can finish.
func (t *Tool) run(ctx context.Context, goal string) outcome {
	o := outcome{termination: TerminationGoal}

	events := make(chan workflow.Event, 64)
	runner, err := t.factory(t.def, events)
	if err != nil {
		t.logger.ErrorContext(ctx, "sub-agent setup failed", "subagent", t.def.Name, "error", err)
		return outcome{termination: TerminationError, err: err.Error(), response: "Sub-agent failed: " + err.Error()}
	}

	timeout := t.def.Timeout
	deadline := t.now().Add(timeout)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer close(events)
		done <- runner.Run(runCtx, prompt.Subagent(t.def.GoalPrompt, goal))
	}()

	var final *string
	stopped := false
	for ev := range events {
		if stopped {
			continue
		}
		if t.now().After(deadline) || runCtx.Err() == context.DeadlineExceeded {
			o.termination = TerminationTimeout
			timedOut := "Sub-agent timed out"
			final = &timedOut
			stopped = true
			cancel()
			continue
		}
		switch e := ev.(type) {
		case workflow.ToolCallStart:
			o.tools = append(o.tools, e.Name)
		case workflow.TextComplete:
			text := e.Text
			final = &text
		case workflow.AgentEnd:
			if final == nil {
				resp := e.Response
				final = &resp
			}
		case workflow.AgentError:
			o.termination = TerminationError
			o.err = e.Message
			msg := "Sub-agent error: " + e.Message
			final = &msg
			stopped = true
			cancel()
		}
	}
	runErr := <-done

	if !stopped && runErr != nil && o.err == "" {
		o.termination = TerminationError
		o.err = runErr.Error()
		msg := "Sub-agent failed: " + runErr.Error()
		final = &msg
	}
	if final != nil {
		o.response = *final
	}

	t.logger.InfoContext(ctx, "sub-agent finished",
		"subagent", t.def.Name,
		"termination", o.termination,
		"tools_called", len(o.tools))
	return o
}

func toolList(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}

func responseOr(s string) string {
	if s == "" {
		return "No response"
	}
	return s
}

// Tools builds one tool per definition.
func Tools(defs []Definition, factory Factory, logger *slog.Logger) []tool.Tool {
	out := make([]tool.Tool, 0, len(defs))
	for _, d := range defs {
		out = append(out, New(d, factory, logger))
	}
	return out
}
