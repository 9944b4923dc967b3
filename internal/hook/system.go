package hook

import (
	"context"
	"log/slog"

	"github.com/Cyclone1070/drift/internal/config"
	"github.com/Cyclone1070/drift/internal/executor"
	"github.com/Cyclone1070/drift/internal/tool"
)

// System runs configured hooks at lifecycle points. Hook failures are
// logged and never returned.
type System struct {
	hooks  []Hook
	cwd    string
	runner executor.Runner
	logger *slog.Logger
}

// New builds a hook system from configuration. With hooks disabled globally
// the system is inert.
func New(cfg *config.Config, runner executor.Runner, logger *slog.Logger) *System {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = executor.NewOSCommandExecutor()
	}
	s := &System{cwd: cfg.Cwd, runner: runner, logger: logger}
	if cfg.HooksEnabled {
		for _, hc := range cfg.Hooks {
			if hc.IsEnabled() {
				s.hooks = append(s.hooks, fromConfig(hc))
			}
		}
	}
	logger.Debug("initialized hook system", "hooks", len(s.hooks))
	return s
}

// Len returns the number of active hooks.
func (s *System) Len() int {
	if s == nil {
		return 0
	}
	return len(s.hooks)
}

func (s *System) BeforeAgent(ctx context.Context, userMessage string) {
	s.fire(ctx, Event{Trigger: BeforeAgent, UserMessage: userMessage})
}

func (s *System) AfterAgent(ctx context.Context, userMessage, response string) {
	s.fire(ctx, Event{Trigger: AfterAgent, UserMessage: userMessage, AgentResponse: response})
}

func (s *System) BeforeTool(ctx context.Context, name string, params map[string]any) {
	s.fire(ctx, Event{Trigger: BeforeTool, ToolName: name, ToolParams: params})
}

func (s *System) AfterTool(ctx context.Context, name string, params map[string]any, result tool.Result) {
	s.fire(ctx, Event{Trigger: AfterTool, ToolName: name, ToolParams: params, ToolResult: result.ToModelOutput()})
}

func (s *System) OnError(ctx context.Context, err error) {
	s.fire(ctx, Event{Trigger: OnError, Err: err})
}

// fire runs matching hooks sequentially in configuration order.
func (s *System) fire(ctx context.Context, ev Event) {
	if s == nil || len(s.hooks) == 0 {
		return
	}
	var env []string
	for _, h := range s.hooks {
		if h.Trigger != ev.Trigger {
			continue
		}
		if env == nil {
			env = buildEnvironment(s.cwd, ev)
		}
		if err := s.execute(ctx, h, env); err != nil {
			s.logger.WarnContext(ctx, "hook failed", "hook", h.Name, "trigger", string(h.Trigger), "error", err)
		}
	}
}
