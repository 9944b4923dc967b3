package mcp

import (
	"context"
	"fmt"

	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/mark3labs/mcp-go/mcp"
)

// NameSeparator joins server and tool names.
const NameSeparator = "__"

type caller interface {
	Call(ctx context.Context, serverName, toolName string, args map[string]any) (CallResult, error)
}

// Tool exposes one MCP server tool. Calls are always treated as mutating.
type Tool struct {
	caller      caller
	server      string
	remoteName  string
	description string
	schema      *tool.Schema
}

func newTool(c caller, serverName string, t mcp.Tool) *Tool {
	return &Tool{
		caller:      c,
		server:      serverName,
		remoteName:  t.Name,
		description: t.Description,
		schema:      convertInputSchema(t.InputSchema),
	}
}

func (t *Tool) Name() string        { return t.server + NameSeparator + t.remoteName }
func (t *Tool) Description() string { return t.description }
func (t *Tool) Kind() tool.Kind     { return tool.KindMCP }
func (t *Tool) Schema() *tool.Schema {
	return t.schema
}

func (t *Tool) ValidateParams(params map[string]any) []string {
	return tool.CheckSchema(t.schema, params)
}

func (t *Tool) IsMutating(map[string]any) bool { return true }

func (t *Tool) GetConfirmation(_ context.Context, inv tool.Invocation) *tool.Confirmation {
	return &tool.Confirmation{
		ToolName:    t.Name(),
		Params:      inv.Params,
		Description: fmt.Sprintf("Call MCP tool %s on server %s", t.remoteName, t.server),
	}
}

func (t *Tool) Execute(ctx context.Context, inv tool.Invocation) (tool.Result, error) {
	res, err := t.caller.Call(ctx, t.server, t.remoteName, inv.Params)
	if err != nil {
		return tool.ErrorResult("MCP tool failed: %v", err), nil
	}
	if res.IsError {
		return tool.ErrorResult("%s", res.Output), nil
	}
	return tool.SuccessResult(res.Output).WithMetadata("server", t.server), nil
}

func convertInputSchema(in mcp.ToolInputSchema) *tool.Schema {
	s := &tool.Schema{Type: tool.TypeObject, Required: in.Required}
	if len(in.Properties) > 0 {
		s.Properties = make(map[string]*tool.Schema, len(in.Properties))
		for name, raw := range in.Properties {
			s.Properties[name] = convertSchema(raw)
		}
	}
	return s
}

// convertSchema converts one JSON schema node decoded as map[string]any.
// Unknown shapes become an untyped string schema.
func convertSchema(raw any) *tool.Schema {
	m, ok := raw.(map[string]any)
	if !ok {
		return &tool.Schema{Type: tool.TypeString}
	}

	s := &tool.Schema{Type: tool.TypeString}
	if t, ok := m["type"].(string); ok {
		s.Type = tool.Type(t)
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	s.Enum = stringList(m["enum"])
	s.Required = stringList(m["required"])
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*tool.Schema, len(props))
		for name, p := range props {
			s.Properties[name] = convertSchema(p)
		}
	}
	if items, ok := m["items"]; ok {
		s.Items = convertSchema(items)
	}
	return s
}

func stringList(v any) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, x := range l {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
