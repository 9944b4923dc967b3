package openai

import (
	"encoding/json"
	"errors"

	provider "github.com/Cyclone1070/drift/internal/provider/models"
	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/sashabaranov/go-openai"
)

// toOpenAIMessages converts the request into chat messages, system first.
func toOpenAIMessages(req *provider.Request) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}

	for _, m := range req.Messages {
		switch m.Role {
		case provider.RoleSystem:
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: m.Content})
		case provider.RoleUser:
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content})
		case provider.RoleAssistant:
			out := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content}
			for _, tc := range m.ToolCalls {
				out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: encodeArguments(tc.Arguments),
					},
				})
			}
			msgs = append(msgs, out)
		case provider.RoleTool:
			content := m.Content
			if content == "" {
				// go-openai omits empty content, which servers reject for tool messages
				content = " "
			}
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    content,
				ToolCallID: m.ToolCallID,
			})
		}
	}
	return msgs
}

func encodeArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// toOpenAITools converts tool declarations. The schema marshals to plain
// JSON Schema, which the API accepts as-is.
func toOpenAITools(decls []tool.Declaration) []openai.Tool {
	if len(decls) == 0 {
		return nil
	}
	tools := make([]openai.Tool, 0, len(decls))
	for _, d := range decls {
		var params any = d.Parameters
		if d.Parameters == nil {
			params = &tool.Schema{Type: tool.TypeObject}
		}
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}

func fromOpenAIUsage(u *openai.Usage) *provider.TokenUsage {
	if u == nil {
		return nil
	}
	usage := &provider.TokenUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
	if u.PromptTokensDetails != nil {
		usage.CachedTokens = u.PromptTokensDetails.CachedTokens
	}
	return usage
}

// mapOpenAIError maps go-openai errors to provider errors.
func mapOpenAIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == "context_length_exceeded" {
			return &provider.ProviderError{Code: provider.ErrorCodeContextLength, Message: apiErr.Message, Underlying: err}
		}
		return provider.StatusError(apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return provider.StatusError(reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return &provider.ProviderError{
		Code:       provider.ErrorCodeNetwork,
		Message:    "network error",
		Underlying: err,
		Retryable:  true,
	}
}
