package mcp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Cyclone1070/drift/internal/config"
	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu       sync.Mutex
	tools    []mcp.Tool
	initErr  error
	callFunc func(req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	calls    []mcp.CallToolRequest
	closed   bool
}

func (f *fakeClient) Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &mcp.InitializeResult{}, nil
}

func (f *fakeClient) ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
	return &mcp.ListToolsResult{Tools: f.tools}, nil
}

func (f *fakeClient) CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.callFunc != nil {
		return f.callFunc(req)
	}
	return &mcp.CallToolResult{}, nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func dialerFor(clients map[string]*fakeClient) Dialer {
	return func(ctx context.Context, name string, cfg config.MCPServerConfig) (Client, error) {
		c, ok := clients[name]
		if !ok {
			return nil, errors.New("connection refused")
		}
		return c, nil
	}
}

func searchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search",
		Description: "Search the index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{"type": "string", "description": "Query text"},
				"limit": map[string]any{"type": "integer"},
				"tags":  map[string]any{"type": "array", "items": map[string]any{"type": "string", "enum": []any{"a", "b"}}},
			},
			Required: []string{"query"},
		},
	}
}

func TestConnect_IsolatesFailures(t *testing.T) {
	disabled := false
	good := &fakeClient{tools: []mcp.Tool{searchTool()}}
	broken := &fakeClient{initErr: errors.New("bad handshake")}

	m := NewManager(map[string]config.MCPServerConfig{
		"docs":   {Command: "docs-server"},
		"broken": {Command: "broken-server"},
		"absent": {URL: "http://localhost:1"},
		"off":    {Command: "off", Enabled: &disabled},
	}, WithDialer(dialerFor(map[string]*fakeClient{"docs": good, "broken": broken, "off": {}})))

	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `mcp server "broken": initialize: bad handshake`)
	assert.Contains(t, err.Error(), `mcp server "absent": connection refused`)

	assert.Equal(t, []string{"docs"}, m.Servers())
	assert.True(t, broken.closed)

	tools := m.Tools()
	require.Len(t, tools, 1)
	assert.Equal(t, "docs__search", tools[0].Name())
	assert.Equal(t, tool.KindMCP, tools[0].Kind())
}

func TestConnect_NoServers(t *testing.T) {
	m := NewManager(nil)
	assert.NoError(t, m.Connect(context.Background()))
	assert.Empty(t, m.Tools())
}

func TestTool_SchemaConverted(t *testing.T) {
	m := NewManager(map[string]config.MCPServerConfig{"docs": {Command: "x"}},
		WithDialer(dialerFor(map[string]*fakeClient{"docs": {tools: []mcp.Tool{searchTool()}}})))
	require.NoError(t, m.Connect(context.Background()))

	s := m.Tools()[0].Schema()
	assert.Equal(t, tool.TypeObject, s.Type)
	assert.Equal(t, []string{"query"}, s.Required)
	assert.Equal(t, tool.TypeString, s.Properties["query"].Type)
	assert.Equal(t, "Query text", s.Properties["query"].Description)
	assert.Equal(t, tool.TypeInteger, s.Properties["limit"].Type)
	assert.Equal(t, tool.TypeArray, s.Properties["tags"].Type)
	assert.Equal(t, []string{"a", "b"}, s.Properties["tags"].Items.Enum)

	tl := m.Tools()[0]
	assert.Equal(t, []string{"missing required parameter: query"}, tl.ValidateParams(map[string]any{}))
	assert.True(t, tl.IsMutating(nil))
	c := tl.GetConfirmation(context.Background(), tool.Invocation{Params: map[string]any{"query": "x"}})
	require.NotNil(t, c)
	assert.Equal(t, "Call MCP tool search on server docs", c.Description)
}

func TestTool_Execute(t *testing.T) {
	fc := &fakeClient{
		tools: []mcp.Tool{searchTool()},
		callFunc: func(req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{
				mcp.TextContent{Type: "text", Text: "first"},
				mcp.ImageContent{Type: "image", Data: "xx", MIMEType: "image/png"},
				mcp.TextContent{Type: "text", Text: "second"},
			}}, nil
		},
	}
	m := NewManager(map[string]config.MCPServerConfig{"docs": {Command: "x"}},
		WithDialer(dialerFor(map[string]*fakeClient{"docs": fc})))
	require.NoError(t, m.Connect(context.Background()))

	res, err := m.Tools()[0].Execute(context.Background(), tool.Invocation{Params: map[string]any{"query": "go"}})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "first\nsecond", res.Output)
	require.Len(t, fc.calls, 1)
	assert.Equal(t, "search", fc.calls[0].Params.Name)
	assert.Equal(t, map[string]any{"query": "go"}, fc.calls[0].Params.Arguments)
}

func TestTool_ExecuteErrors(t *testing.T) {
	fc := &fakeClient{tools: []mcp.Tool{searchTool()}}
	m := NewManager(map[string]config.MCPServerConfig{"docs": {Command: "x"}},
		WithDialer(dialerFor(map[string]*fakeClient{"docs": fc})))
	require.NoError(t, m.Connect(context.Background()))
	tl := m.Tools()[0]

	fc.callFunc = func(req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "index offline"}}}, nil
	}
	res, err := tl.Execute(context.Background(), tool.Invocation{Params: map[string]any{"query": "go"}})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "index offline", res.Error)

	fc.callFunc = func(req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, errors.New("broken pipe")
	}
	res, err = tl.Execute(context.Background(), tool.Invocation{Params: map[string]any{"query": "go"}})
	require.NoError(t, err)
	assert.Equal(t, "MCP tool failed: broken pipe", res.Error)

	require.NoError(t, m.Close())
	assert.True(t, fc.closed)
	res, err = tl.Execute(context.Background(), tool.Invocation{Params: map[string]any{"query": "go"}})
	require.NoError(t, err)
	assert.Contains(t, res.Error, ErrServerNotConnected.Error())
}

func TestTool_ExecuteErrorKeepsPercent(t *testing.T) {
	fc := &fakeClient{
		tools: []mcp.Tool{searchTool()},
		callFunc: func(req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "disk 100% full"}}}, nil
		},
	}
	m := NewManager(map[string]config.MCPServerConfig{"docs": {Command: "x"}},
		WithDialer(dialerFor(map[string]*fakeClient{"docs": fc})))
	require.NoError(t, m.Connect(context.Background()))

	res, err := m.Tools()[0].Execute(context.Background(), tool.Invocation{Params: map[string]any{"query": "go"}})
	require.NoError(t, err)
	assert.Equal(t, "disk 100% full", res.Error)
}

func TestConnect_ConnectionOutlivesStartup(t *testing.T) {
	var dialCtx context.Context
	m := NewManager(map[string]config.MCPServerConfig{"docs": {Command: "x", StartupTimeoutSec: 1}},
		WithDialer(func(ctx context.Context, name string, cfg config.MCPServerConfig) (Client, error) {
			dialCtx = ctx
			return &fakeClient{tools: []mcp.Tool{searchTool()}}, nil
		}))
	require.NoError(t, m.Connect(context.Background()))
	require.NotNil(t, dialCtx)
	assert.NoError(t, dialCtx.Err())

	require.NoError(t, m.Close())
	assert.ErrorIs(t, dialCtx.Err(), context.Canceled)
}

func TestConnect_DialTimeout(t *testing.T) {
	release := make(chan struct{})
	late := &fakeClient{}
	m := NewManager(map[string]config.MCPServerConfig{"slow": {Command: "x", StartupTimeoutSec: 1}},
		WithDialer(func(ctx context.Context, name string, cfg config.MCPServerConfig) (Client, error) {
			<-release
			return late, nil
		}))

	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, m.Servers())

	close(release)
	assert.Eventually(t, func() bool {
		late.mu.Lock()
		defer late.mu.Unlock()
		return late.closed
	}, time.Second, 10*time.Millisecond)
}

func TestDial_SSEServerStaysConnected(t *testing.T) {
	srv := mcpserver.NewMCPServer("docs", "1.0.0", mcpserver.WithToolCapabilities(true))
	srv.AddTool(
		mcp.NewTool("echo", mcp.WithDescription("Echo text"), mcp.WithString("text", mcp.Required())),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("echo: " + req.GetString("text", "")), nil
		},
	)
	ts := mcpserver.NewTestServer(srv)
	defer ts.Close()

	m := NewManager(map[string]config.MCPServerConfig{
		"docs": {URL: ts.URL + "/sse", Transport: TransportSSE, StartupTimeoutSec: 5},
	})
	require.NoError(t, m.Connect(context.Background()))
	defer m.Close()

	tools := m.Tools()
	require.Len(t, tools, 1)
	assert.Equal(t, "docs__echo", tools[0].Name())

	// The call runs after the startup timeout context has been released.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := tools[0].Execute(ctx, tool.Invocation{Params: map[string]any{"text": "hi"}})
	require.NoError(t, err)
	assert.True(t, res.Success, res.Error)
	assert.Equal(t, "echo: hi", res.Output)
}

func TestTransportFor(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MCPServerConfig
		want string
		err  error
	}{
		{"command infers stdio", config.MCPServerConfig{Command: "x"}, TransportStdio, nil},
		{"url infers http", config.MCPServerConfig{URL: "http://h"}, TransportHTTP, nil},
		{"sse", config.MCPServerConfig{URL: "http://h", Transport: "sse"}, TransportSSE, nil},
		{"both", config.MCPServerConfig{Command: "x", URL: "http://h"}, "", ErrNoEndpoint},
		{"neither", config.MCPServerConfig{}, "", ErrNoEndpoint},
		{"stdio without command", config.MCPServerConfig{URL: "http://h", Transport: "stdio"}, "", ErrNoEndpoint},
		{"unknown", config.MCPServerConfig{Command: "x", Transport: "grpc"}, "", ErrUnknownTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := transportFor(tt.cfg)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnvList(t *testing.T) {
	assert.Equal(t, []string{"A=1", "B=2"}, envList(map[string]string{"B": "2", "A": "1"}))
	assert.Empty(t, envList(nil))
}
