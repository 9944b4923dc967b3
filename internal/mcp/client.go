// Package mcp connects to Model Context Protocol servers and exposes their
// tools to the agent.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Cyclone1070/drift/internal/config"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
	TransportSSE   = "sse"
)

var (
	ErrNoEndpoint         = errors.New("mcp server needs exactly one of command or url")
	ErrUnknownTransport   = errors.New("unsupported mcp transport")
	ErrServerNotConnected = errors.New("mcp server not connected")
)

// Client is the subset of the mcp-go client the manager uses.
type Client interface {
	Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// Dialer opens a started, uninitialized client for one server. ctx bounds
// the life of the connection, not just the dial.
type Dialer func(ctx context.Context, name string, cfg config.MCPServerConfig) (Client, error)

// transportFor picks the transport, inferring it from the endpoint when
// unset.
func transportFor(cfg config.MCPServerConfig) (string, error) {
	hasCmd, hasURL := cfg.Command != "", cfg.URL != ""
	if hasCmd == hasURL {
		return "", ErrNoEndpoint
	}
	switch cfg.Transport {
	case "":
		if hasCmd {
			return TransportStdio, nil
		}
		return TransportHTTP, nil
	case TransportStdio:
		if !hasCmd {
			return "", fmt.Errorf("%w: stdio needs a command", ErrNoEndpoint)
		}
		return TransportStdio, nil
	case TransportHTTP, TransportSSE:
		if !hasURL {
			return "", fmt.Errorf("%w: %s needs a url", ErrNoEndpoint, cfg.Transport)
		}
		return cfg.Transport, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTransport, cfg.Transport)
	}
}

// Dial creates and starts an mcp-go client. Stdio clients are started on
// creation; starting them again would spawn a second process.
func Dial(ctx context.Context, name string, cfg config.MCPServerConfig) (Client, error) {
	kind, err := transportFor(cfg)
	if err != nil {
		return nil, err
	}

	var c *client.Client
	switch kind {
	case TransportStdio:
		c, err = client.NewStdioMCPClient(cfg.Command, envList(cfg.Env), cfg.Args...)
	case TransportHTTP:
		var opts []transport.StreamableHTTPCOption
		if len(cfg.Headers) > 0 {
			opts = append(opts, transport.WithHTTPHeaders(cfg.Headers))
		}
		c, err = client.NewStreamableHttpClient(cfg.URL, opts...)
	case TransportSSE:
		var opts []transport.ClientOption
		if len(cfg.Headers) > 0 {
			opts = append(opts, transport.WithHeaders(cfg.Headers))
		}
		c, err = client.NewSSEMCPClient(cfg.URL, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	if kind == TransportStdio {
		return c, nil
	}
	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("start client: %w", err)
	}
	return c, nil
}

func envList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
