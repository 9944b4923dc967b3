package gemini

import (
	"context"
	"io"
	"iter"
	"log/slog"

	provider "github.com/Cyclone1070/drift/internal/provider/models"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

// Provider implements models.StreamClient for Google Gemini.
type Provider struct {
	client GeminiClient
	model  string
	logger *slog.Logger
}

// NewProvider creates a Gemini stream client for model.
func NewProvider(client GeminiClient, model string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		client: client,
		model:  model,
		logger: logger,
	}
}

// Stream opens a streamed completion. The first chunk is read eagerly so
// that request failures surface here, where they can be retried.
func (p *Provider) Stream(ctx context.Context, req *provider.Request) (provider.Stream, error) {
	contents := toGeminiContents(req.Messages)
	config := toGeminiConfig(req)

	p.logger.DebugContext(ctx, "gemini stream", "model", p.model, "contents", len(contents), "tools", len(req.Tools))

	next, stop := iter.Pull2(p.client.GenerateContentStream(ctx, p.model, contents, config))
	first, err, ok := next()
	if err != nil {
		stop()
		return nil, mapGeminiError(err)
	}

	s := &stream{next: next, stop: stop, logger: p.logger}
	if ok {
		s.consume(first)
	} else {
		s.finish()
	}
	return s, nil
}

// stream converts Gemini chunks into stream events. Gemini delivers each
// function call whole, so calls are emitted as start+complete pairs.
type stream struct {
	next   func() (*genai.GenerateContentResponse, error, bool)
	stop   func()
	logger *slog.Logger

	pending      []provider.StreamEvent
	usage        *provider.TokenUsage
	finishReason string
	sawToolCall  bool
	done         bool
}

func (s *stream) Next() (provider.StreamEvent, error) {
	for len(s.pending) == 0 {
		if s.done {
			return provider.StreamEvent{}, io.EOF
		}
		resp, err, ok := s.next()
		switch {
		case err != nil:
			s.pending = append(s.pending, provider.ErrorEvent(mapGeminiError(err).Error()))
			s.done = true
		case !ok:
			s.finish()
		default:
			s.consume(resp)
		}
	}

	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev, nil
}

func (s *stream) Close() error {
	s.stop()
	return nil
}

func (s *stream) consume(resp *genai.GenerateContentResponse) {
	if resp == nil {
		return
	}
	if u := fromGeminiUsage(resp.UsageMetadata); u != nil {
		s.usage = u
	}
	if len(resp.Candidates) == 0 {
		return
	}

	cand := resp.Candidates[0]
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			s.consumePart(part)
		}
	}

	switch cand.FinishReason {
	case "":
	case genai.FinishReasonSafety:
		s.pending = append(s.pending, provider.ErrorEvent("content blocked by safety filters"))
		s.finishReason = "content_filter"
	case genai.FinishReasonMaxTokens:
		s.finishReason = "length"
	default:
		s.finishReason = "stop"
	}
}

func (s *stream) consumePart(part *genai.Part) {
	if part == nil {
		return
	}
	if part.Text != "" && !part.Thought {
		s.pending = append(s.pending, provider.TextDelta(part.Text))
	}
	if fc := part.FunctionCall; fc != nil {
		id := fc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		call := &provider.ToolCall{ID: id, Name: fc.Name, Arguments: fc.Args}
		s.pending = append(s.pending,
			provider.StreamEvent{Type: provider.EventToolCallStart, ToolCall: &provider.ToolCall{ID: id, Name: fc.Name}},
			provider.StreamEvent{Type: provider.EventToolCallComplete, ToolCall: call},
		)
		s.sawToolCall = true
	}
}

func (s *stream) finish() {
	reason := s.finishReason
	if s.sawToolCall && (reason == "" || reason == "stop") {
		reason = "tool_calls"
	}
	if reason == "" {
		reason = "stop"
	}
	s.pending = append(s.pending, provider.StreamEvent{
		Type:         provider.EventMessageComplete,
		FinishReason: reason,
		Usage:        s.usage,
	})
	s.done = true
	s.logger.Debug("gemini stream complete", "finish_reason", reason)
}
