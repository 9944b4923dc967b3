package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	provider "github.com/Cyclone1070/drift/internal/provider/models"
	"github.com/sashabaranov/go-openai"
)

// Provider implements models.StreamClient for OpenAI-compatible chat APIs.
type Provider struct {
	client ChatClient
	model  string
	logger *slog.Logger
}

// NewProvider creates an OpenAI stream client for model.
func NewProvider(client ChatClient, model string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{client: client, model: model, logger: logger}
}

func (p *Provider) Stream(ctx context.Context, req *provider.Request) (provider.Stream, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:         p.model,
		Messages:      toOpenAIMessages(req),
		Tools:         toOpenAITools(req.Tools),
		Stream:        true,
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	}
	if req.Temperature != nil {
		chatReq.Temperature = *req.Temperature
	}

	p.logger.DebugContext(ctx, "openai stream", "model", p.model, "messages", len(chatReq.Messages), "tools", len(chatReq.Tools))

	recv, err := p.client.OpenStream(ctx, chatReq)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	return &stream{recv: recv, calls: map[int]*pendingCall{}, logger: p.logger}, nil
}

// pendingCall accumulates the deltas of one tool call.
type pendingCall struct {
	id   string
	name string
	args strings.Builder
}

// stream converts chunks into stream events. Tool call arguments arrive as
// JSON fragments keyed by index and are parsed once the stream ends.
type stream struct {
	recv   ChunkReceiver
	logger *slog.Logger

	pending      []provider.StreamEvent
	calls        map[int]*pendingCall
	usage        *provider.TokenUsage
	finishReason string
	done         bool
}

func (s *stream) Next() (provider.StreamEvent, error) {
	for len(s.pending) == 0 {
		if s.done {
			return provider.StreamEvent{}, io.EOF
		}
		chunk, err := s.recv.Recv()
		switch {
		case errors.Is(err, io.EOF):
			s.finish()
		case err != nil:
			s.pending = append(s.pending, provider.ErrorEvent(mapOpenAIError(err).Error()))
			s.done = true
		default:
			s.consume(chunk)
		}
	}

	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev, nil
}

func (s *stream) Close() error {
	return s.recv.Close()
}

func (s *stream) consume(chunk openai.ChatCompletionStreamResponse) {
	if u := fromOpenAIUsage(chunk.Usage); u != nil {
		s.usage = u
	}
	for _, choice := range chunk.Choices {
		if choice.Delta.Content != "" {
			s.pending = append(s.pending, provider.TextDelta(choice.Delta.Content))
		}
		for _, tc := range choice.Delta.ToolCalls {
			s.consumeToolCall(tc)
		}
		if choice.FinishReason != "" {
			s.finishReason = string(choice.FinishReason)
		}
	}
}

func (s *stream) consumeToolCall(tc openai.ToolCall) {
	idx := len(s.calls)
	if tc.Index != nil {
		idx = *tc.Index
	}

	call, ok := s.calls[idx]
	if !ok {
		call = &pendingCall{id: tc.ID, name: tc.Function.Name}
		s.calls[idx] = call
		s.pending = append(s.pending, provider.StreamEvent{
			Type:     provider.EventToolCallStart,
			ToolCall: &provider.ToolCall{ID: call.id, Name: call.name},
		})
	} else {
		if call.id == "" {
			call.id = tc.ID
		}
		if call.name == "" {
			call.name = tc.Function.Name
		}
	}

	if tc.Function.Arguments != "" {
		call.args.WriteString(tc.Function.Arguments)
		s.pending = append(s.pending, provider.StreamEvent{
			Type:      provider.EventToolCallDelta,
			ToolCall:  &provider.ToolCall{ID: call.id, Name: call.name},
			ArgsDelta: tc.Function.Arguments,
		})
	}
}

func (s *stream) finish() {
	indices := make([]int, 0, len(s.calls))
	for i := range s.calls {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	for _, i := range indices {
		call := s.calls[i]
		args, err := parseArguments(call.args.String())
		if err != nil {
			s.logger.Warn("malformed tool call arguments", "tool", call.name, "error", err)
			s.pending = append(s.pending, provider.ErrorEvent(fmt.Sprintf("malformed arguments for tool %s: %v", call.name, err)))
		}
		s.pending = append(s.pending, provider.StreamEvent{
			Type:     provider.EventToolCallComplete,
			ToolCall: &provider.ToolCall{ID: call.id, Name: call.name, Arguments: args},
		})
	}

	reason := s.finishReason
	if reason == "" {
		reason = "stop"
		if len(s.calls) > 0 {
			reason = "tool_calls"
		}
	}
	s.pending = append(s.pending, provider.StreamEvent{
		Type:         provider.EventMessageComplete,
		FinishReason: reason,
		Usage:        s.usage,
	})
	s.done = true
}

// parseArguments decodes accumulated JSON. Empty input means no arguments;
// malformed input yields an empty map alongside the error.
func parseArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
