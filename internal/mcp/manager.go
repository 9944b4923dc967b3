package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/Cyclone1070/drift/internal/config"
	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"
)

const (
	clientName    = "drift"
	clientVersion = "0.1.0"
)

// server is one connected MCP server and the tools it advertised.
type server struct {
	name   string
	client Client
	tools  []mcp.Tool
}

// Manager owns the MCP server connections.
type Manager struct {
	servers map[string]config.MCPServerConfig
	dial    Dialer
	logger  *slog.Logger

	// life bounds open connections and is cancelled by Close.
	life context.Context
	stop context.CancelFunc

	mu        sync.RWMutex
	connected map[string]*server
}

// Option configures a Manager.
type Option func(*Manager)

// WithDialer replaces Dial, mainly for tests.
func WithDialer(d Dialer) Option {
	return func(m *Manager) { m.dial = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager for the configured servers. Nothing is
// connected until Connect.
func NewManager(servers map[string]config.MCPServerConfig, opts ...Option) *Manager {
	m := &Manager{
		servers:   servers,
		dial:      Dial,
		logger:    slog.Default(),
		connected: make(map[string]*server),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.life, m.stop = context.WithCancel(context.Background())
	return m
}

// Connect connects every enabled server concurrently, each under its own
// startup timeout. A server that fails is logged and skipped; the joined
// failures are returned alongside whatever did connect.
func (m *Manager) Connect(ctx context.Context) error {
	names := make([]string, 0, len(m.servers))
	for name, cfg := range m.servers {
		if cfg.IsEnabled() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil
	}

	m.logger.InfoContext(ctx, "connecting to mcp servers", "count", len(names))

	results := make([]*server, len(names))
	failures := make([]error, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			s, err := m.connect(ctx, name, m.servers[name])
			if err != nil {
				m.logger.ErrorContext(ctx, "mcp server failed", "server", name, "error", err)
				failures[i] = fmt.Errorf("mcp server %q: %w", name, err)
				return nil
			}
			m.logger.InfoContext(ctx, "mcp server connected", "server", name, "tools", len(s.tools))
			results[i] = s
			return nil
		})
	}
	_ = g.Wait()

	m.mu.Lock()
	for _, s := range results {
		if s != nil {
			m.connected[s.name] = s
		}
	}
	m.mu.Unlock()

	return errors.Join(failures...)
}

// connect dials on the manager's lifetime context; SSE streams live as
// long as it does. The startup timeout covers dial and the handshake.
func (m *Manager) connect(ctx context.Context, name string, cfg config.MCPServerConfig) (*server, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.StartupTimeout())
	defer cancel()

	c, err := m.dialWithin(ctx, name, cfg)
	if err != nil {
		return nil, err
	}

	init := mcp.InitializeRequest{}
	init.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	init.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: clientVersion}
	if _, err := c.Initialize(ctx, init); err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}

	list, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return &server{name: name, client: c, tools: list.Tools}, nil
}

// dialWithin runs the dial on the lifetime context but gives up when ctx
// ends first. A late client is closed once it arrives.
func (m *Manager) dialWithin(ctx context.Context, name string, cfg config.MCPServerConfig) (Client, error) {
	type dialed struct {
		c   Client
		err error
	}
	done := make(chan dialed, 1)
	go func() {
		c, err := m.dial(m.life, name, cfg)
		done <- dialed{c, err}
	}()

	select {
	case d := <-done:
		return d.c, d.err
	case <-ctx.Done():
		go func() {
			if d := <-done; d.c != nil {
				d.c.Close()
			}
		}()
		return nil, fmt.Errorf("dial: %w", ctx.Err())
	}
}

// Servers returns the names of connected servers.
func (m *Manager) Servers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.connected))
	for name := range m.connected {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tools returns one tool per advertised server tool, named
// <server>__<tool>, ordered by name.
func (m *Manager) Tools() []tool.Tool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []tool.Tool
	for _, s := range m.connected {
		for _, t := range s.tools {
			out = append(out, newTool(m, s.name, t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// CallResult is the flattened outcome of an MCP tool call.
type CallResult struct {
	Output  string
	IsError bool
}

// Call invokes toolName on server and concatenates its text contents.
func (m *Manager) Call(ctx context.Context, serverName, toolName string, args map[string]any) (CallResult, error) {
	m.mu.RLock()
	s, ok := m.connected[serverName]
	m.mu.RUnlock()
	if !ok {
		return CallResult{}, fmt.Errorf("%w: %s", ErrServerNotConnected, serverName)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args

	resp, err := s.client.CallTool(ctx, req)
	if err != nil {
		return CallResult{}, err
	}
	return CallResult{Output: textOf(resp.Content), IsError: resp.IsError}, nil
}

func textOf(contents []mcp.Content) string {
	var parts []string
	for _, c := range contents {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Close closes every connected client and ends their streams.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.stop()

	var errs []error
	for name, s := range m.connected {
		if err := s.client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	m.connected = make(map[string]*server)
	return errors.Join(errs...)
}
