// Package main is the drift command: an interactive coding agent that runs
// in the current repository.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/Cyclone1070/drift/internal/compaction"
	"github.com/Cyclone1070/drift/internal/config"
	"github.com/Cyclone1070/drift/internal/conversation"
	"github.com/Cyclone1070/drift/internal/executor"
	"github.com/Cyclone1070/drift/internal/hook"
	"github.com/Cyclone1070/drift/internal/mcp"
	"github.com/Cyclone1070/drift/internal/prompt"
	"github.com/Cyclone1070/drift/internal/provider"
	"github.com/Cyclone1070/drift/internal/provider/gemini"
	"github.com/Cyclone1070/drift/internal/provider/models"
	"github.com/Cyclone1070/drift/internal/provider/openai"
	"github.com/Cyclone1070/drift/internal/safety"
	"github.com/Cyclone1070/drift/internal/session"
	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/Cyclone1070/drift/internal/tool/builtin"
	"github.com/Cyclone1070/drift/internal/tool/subagent"
	"github.com/Cyclone1070/drift/internal/ui"
	"github.com/Cyclone1070/drift/internal/ui/services"
	"github.com/Cyclone1070/drift/internal/workflow"
	"github.com/Cyclone1070/drift/internal/workflow/loop"
	"github.com/Cyclone1070/drift/internal/workflow/toolmanager"
	"github.com/charmbracelet/bubbles/spinner"
)

// Dependencies holds the components required to run the application.
type Dependencies struct {
	Config          *config.Config
	UI              ui.Terminal
	Logger          *slog.Logger
	Runner          executor.Runner
	ProviderFactory func(context.Context) (models.StreamClient, error)
	Store           session.Store
	Tokenizer       conversation.Tokenizer // nil loads tiktoken
}

func main() {
	resume := flag.String("resume", "", "resume the stored session with this id")
	approval := flag.String("approval", "", "approval policy override (on-request, on-failure, auto, auto-edit, never, yolo)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *approval != "" {
		cfg.Approval = *approval
	}

	terminal, tui := createTerminal()
	if tui != nil && cfg.Log.File == "" {
		// stderr belongs to the full-screen UI
		cfg.Log.File = filepath.Join(os.TempDir(), "drift.log")
	}

	logOut, closeLog, err := openLogOutput(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	logger, err := config.NewLogger(cfg.Log, logOut)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	deps := Dependencies{
		Config:          cfg,
		UI:              terminal,
		Logger:          logger,
		Runner:          executor.NewOSCommandExecutor(),
		ProviderFactory: createProviderFactory(cfg, logger),
	}

	if cfg.Session.StorePath != "" {
		store, err := session.OpenSQLite(cfg.Session.StorePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		deps.Store = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	var uiDone chan error
	if tui != nil {
		uiDone = make(chan error, 1)
		go func() { uiDone <- tui.Run() }()
	}

	err = runInteractive(ctx, deps, *resume)

	if tui != nil {
		tui.Quit()
		if uiErr := <-uiDone; uiErr != nil {
			logger.Error("terminal UI failed", "error", uiErr)
		}
	}
	if err != nil && !errors.Is(err, ui.ErrInputClosed) && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openLogOutput returns the log file named in cfg, or stderr.
func openLogOutput(cfg config.LogConfig) (io.Writer, func(), error) {
	if cfg.File == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// createTerminal returns the full-screen UI when both stdin and stdout are
// terminals, and the line console otherwise. tui is nil for the console.
func createTerminal() (terminal ui.Terminal, tui *ui.TUI) {
	_, inTTY := ui.TerminalWidth(os.Stdin)
	w, outTTY := ui.TerminalWidth(os.Stdout)
	if inTTY && outTTY {
		tui = ui.NewTUI(services.NewGlamourRenderer(""), func() spinner.Model {
			return spinner.New(spinner.WithSpinner(spinner.Dot))
		})
		return tui, tui
	}
	var opts []ui.Option
	if outTTY {
		opts = append(opts, ui.WithWidth(w), ui.WithRenderer(services.NewGlamourRenderer("")))
	}
	return ui.NewConsole(os.Stdin, os.Stdout, opts...), nil
}

func createProviderFactory(cfg *config.Config, logger *slog.Logger) func(context.Context) (models.StreamClient, error) {
	return func(ctx context.Context) (models.StreamClient, error) {
		client, err := createProvider(ctx, cfg.Model, logger)
		if err != nil {
			return nil, err
		}
		return provider.NewRetrying(client,
			provider.WithMaxRetries(cfg.Model.MaxRetries),
			provider.WithLogger(logger),
		), nil
	}
}

// createProvider builds the raw stream client for the configured provider.
func createProvider(ctx context.Context, cfg config.ModelConfig, logger *slog.Logger) (models.StreamClient, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
		client, err := gemini.Dial(ctx, cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return gemini.NewProvider(client, cfg.Name, logger), nil
	case "openai", "":
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
		return openai.NewProvider(openai.NewRealChatClient(cfg.APIKey, cfg.BaseURL), cfg.Name, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// createTokenizer prefers tiktoken and falls back to the character
// estimator when no encoding can be loaded.
func createTokenizer(model string, logger *slog.Logger) conversation.Tokenizer {
	tk, err := conversation.NewTiktokenTokenizer(model)
	if err != nil {
		logger.Warn("tiktoken unavailable, estimating token counts", "error", err)
		return conversation.Estimator{}
	}
	return tk
}

// agentEnv captures what every loop of the process shares.
type agentEnv struct {
	cfg       *config.Config
	client    models.StreamClient
	tokenizer conversation.Tokenizer
	hooks     *hook.System
	logger    *slog.Logger
}

func (e agentEnv) systemPrompt(decls []tool.Declaration) string {
	return prompt.System(prompt.Environment{
		Cwd:                   e.cfg.Cwd,
		OS:                    runtime.GOOS,
		Now:                   time.Now(),
		Tools:                 decls,
		DeveloperInstructions: e.cfg.DeveloperInstructions,
		UserInstructions:      e.cfg.UserInstructions,
	})
}

func (e agentEnv) newSession(decls []tool.Declaration) *session.Session {
	store := conversation.NewStore(e.cfg.Model.ContextWindow,
		conversation.WithTokenizer(e.tokenizer),
		conversation.WithSystemPrompt(e.systemPrompt(decls)),
		conversation.WithLogger(e.logger),
	)
	return session.New(store)
}

func (e agentEnv) newLoop(sess *session.Session, tools *toolmanager.ToolManager, events chan<- workflow.Event, maxTurns int, logger *slog.Logger) *loop.Loop {
	return loop.NewLoop(e.client, sess, tools, events, maxTurns,
		loop.WithCompactor(compaction.New(e.client, logger)),
		loop.WithHooks(e.hooks),
		loop.WithTemperature(e.cfg.Model.Temperature),
		loop.WithLogger(logger),
	)
}

// subagentFactory builds nested loops over a filtered view of tools. A nil
// allow-list means every tool except other subagents.
func (e agentEnv) subagentFactory(tools *toolmanager.ToolManager) subagent.Factory {
	return func(def subagent.Definition, events chan<- workflow.Event) (subagent.Runner, error) {
		allowed := def.AllowedTools
		if allowed == nil {
			allowed = nonSubagentTools(tools)
		}
		scoped := tools.Filter(allowed)
		if len(scoped.Tools()) == 0 {
			return nil, fmt.Errorf("no tools available for sub-agent %s", def.Name)
		}
		logger := e.logger.With("subagent", def.Name)
		sess := e.newSession(scoped.Declarations())
		return e.newLoop(sess, scoped, events, def.MaxTurns, logger), nil
	}
}

func nonSubagentTools(tools *toolmanager.ToolManager) []string {
	var names []string
	for _, t := range tools.Tools() {
		if !strings.HasPrefix(t.Name(), "subagent_") {
			names = append(names, t.Name())
		}
	}
	return names
}

// createTools registers built-ins, MCP tools and subagents, then applies the
// configured allow-list.
func createTools(ctx context.Context, env agentEnv, runner executor.Runner, approval *safety.Engine, mcpManager *mcp.Manager) *toolmanager.ToolManager {
	tools := toolmanager.NewToolManager(env.cfg.Cwd,
		toolmanager.WithHooks(env.hooks),
		toolmanager.WithApproval(approval),
		toolmanager.WithLogger(env.logger),
	)
	tools.Register(builtin.Defaults(env.cfg, runner)...)

	if mcpManager != nil {
		if err := mcpManager.Connect(ctx); err != nil {
			env.logger.WarnContext(ctx, "some MCP servers failed to connect", "error", err)
		}
		tools.Register(mcpManager.Tools()...)
	}

	tools.Register(subagent.Tools(subagent.Defaults(), env.subagentFactory(tools), env.logger)...)

	if env.cfg.AllowedTools != nil {
		return tools.Filter(env.cfg.AllowedTools)
	}
	return tools
}

func runInteractive(ctx context.Context, deps Dependencies, resumeID string) error {
	cfg := deps.Config
	console := deps.UI
	logger := deps.Logger

	client, err := deps.ProviderFactory(ctx)
	if err != nil {
		return fmt.Errorf("initialize provider: %w", err)
	}

	policy, err := safety.ParsePolicy(cfg.Approval)
	if err != nil {
		return err
	}
	approval := safety.NewEngine(policy, cfg.Cwd,
		safety.WithConfirmer(safety.NewSessionConfirmer(console)),
		safety.WithLogger(logger),
	)

	tokenizer := deps.Tokenizer
	if tokenizer == nil {
		tokenizer = createTokenizer(cfg.Model.Name, logger)
	}

	env := agentEnv{
		cfg:       cfg,
		client:    client,
		tokenizer: tokenizer,
		hooks:     hook.New(cfg, deps.Runner, logger),
		logger:    logger,
	}

	mcpManager := mcp.NewManager(cfg.MCPServers, mcp.WithLogger(logger))
	defer mcpManager.Close()

	tools := createTools(ctx, env, deps.Runner, approval, mcpManager)
	sess := env.newSession(tools.Declarations())

	if resumeID != "" {
		if deps.Store == nil {
			return errors.New("cannot resume: session.store_path is not configured")
		}
		snap, err := deps.Store.Load(ctx, resumeID)
		if err != nil {
			return fmt.Errorf("resume session %s: %w", resumeID, err)
		}
		sess.Restore(snap)
		console.WriteMessage(fmt.Sprintf("Resumed session %s (%d messages)", sess.ID, sess.Context.Len()))
	}

	events := make(chan workflow.Event, 64)
	agent := env.newLoop(sess, tools, events, cfg.MaxTurns, logger)

	logger.Info("drift ready",
		"session", sess.ID,
		"provider", cfg.Model.Provider,
		"model", cfg.Model.Name,
		"tools", len(tools.Tools()),
		"mcp_servers", len(mcpManager.Servers()))

	for {
		line, err := console.ReadInput(ctx, "> ")
		if err != nil {
			return err
		}

		if strings.HasPrefix(line, "/") {
			if quit := handleCommand(ctx, line, deps, sess, tools, mcpManager); quit {
				return nil
			}
			continue
		}

		runTurn(ctx, agent, events, console, line)
		u := sess.Context.LatestUsage()
		console.WriteUsage(sess.Context.TotalUsage(), cfg.Model.Name, u.PromptTokens+u.CompletionTokens, cfg.Model.ContextWindow)

		if deps.Store != nil {
			if err := deps.Store.Save(ctx, sess.Snapshot()); err != nil {
				logger.Error("failed to save session", "session", sess.ID, "error", err)
			}
		}
	}
}

// runTurn runs one message. Ctrl+C cancels the run instead of the session.
func runTurn(ctx context.Context, agent *loop.Loop, events chan workflow.Event, console ui.Terminal, message string) {
	runCtx, stop := console.TurnContext(ctx)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		console.Consume(events)
	}()

	// failures were already rendered from the event stream
	_ = agent.Run(runCtx, message)
	<-done
}

// handleCommand runs a slash command and reports whether to exit.
func handleCommand(ctx context.Context, line string, deps Dependencies, sess *session.Session, tools *toolmanager.ToolManager, mcpManager *mcp.Manager) bool {
	console := deps.UI
	fields := strings.Fields(line)

	switch fields[0] {
	case "/exit", "/quit":
		return true
	case "/clear":
		sess.Context.Clear()
		console.WriteMessage("Conversation cleared.")
	case "/stats":
		st := sess.Stats()
		st.ToolsCount = len(tools.Tools())
		st.MCPServers = mcpManager.Servers()
		console.WriteMessage(formatStats(st))
	case "/sessions":
		if deps.Store == nil {
			console.WriteMessage("Session persistence is disabled.")
			return false
		}
		list, err := deps.Store.List(ctx)
		if err != nil {
			console.WriteMessage(fmt.Sprintf("Error listing sessions: %v", err))
			return false
		}
		if len(list) == 0 {
			console.WriteMessage("No stored sessions.")
			return false
		}
		for _, s := range list {
			console.WriteMessage(fmt.Sprintf("%s  %s  %d turns", s.SessionID, s.UpdatedAt.Format(time.DateTime), s.TurnCount))
		}
	case "/help":
		console.WriteMessage("Commands: /clear, /stats, /sessions, /exit")
	default:
		console.WriteMessage(fmt.Sprintf("Unknown command %s (try /help)", fields[0]))
	}
	return false
}

func formatStats(st session.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s\n", st.SessionID)
	fmt.Fprintf(&b, "  started:  %s\n", st.CreatedAt.Format(time.DateTime))
	fmt.Fprintf(&b, "  turns:    %d\n", st.TurnCount)
	fmt.Fprintf(&b, "  messages: %d\n", st.MessageCount)
	fmt.Fprintf(&b, "  tokens:   %d in / %d out\n", st.TokenUsage.PromptTokens, st.TokenUsage.CompletionTokens)
	fmt.Fprintf(&b, "  tools:    %d", st.ToolsCount)
	if len(st.MCPServers) > 0 {
		fmt.Fprintf(&b, "\n  mcp:      %s", strings.Join(st.MCPServers, ", "))
	}
	return b.String()
}
