// Package compaction condenses a conversation into a continuation summary.
package compaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Cyclone1070/drift/internal/prompt"
	"github.com/Cyclone1070/drift/internal/provider/models"
)

const (
	maxUserChars      = 1500
	maxAssistantChars = 3000
	maxToolChars      = 2000
	maxArgsChars      = 500

	sectionSeparator = "\n\n---\n\n"
	minMessages      = 3
)

// Compactor asks the model to summarize a conversation.
type Compactor struct {
	client models.StreamClient
	logger *slog.Logger
}

// New creates a Compactor that summarizes with client.
func New(client models.StreamClient, logger *slog.Logger) *Compactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compactor{client: client, logger: logger}
}

// Summarize returns a summary of messages and the usage of the summary
// request. It returns nil when there is too little to summarize or the
// model call fails; failures are logged.
func (c *Compactor) Summarize(ctx context.Context, messages []models.Message) (*string, *models.TokenUsage) {
	if len(messages) < minMessages {
		c.logger.DebugContext(ctx, "not enough messages to compact", "messages", len(messages))
		return nil, nil
	}

	req := &models.Request{
		System: prompt.Compaction(),
		Messages: []models.Message{{
			Role:    models.RoleUser,
			Content: Transcript(messages),
		}},
	}

	summary, usage, err := c.collect(ctx, req)
	if err != nil {
		c.logger.ErrorContext(ctx, "compaction failed", "error", err)
		return nil, nil
	}
	if strings.TrimSpace(summary) == "" {
		c.logger.WarnContext(ctx, "compaction returned an empty summary")
		return nil, nil
	}

	c.logger.InfoContext(ctx, "compacted conversation", "summary_tokens", usage.CompletionTokens, "total_tokens", usage.TotalTokens)
	return &summary, usage
}

func (c *Compactor) collect(ctx context.Context, req *models.Request) (string, *models.TokenUsage, error) {
	stream, err := c.client.Stream(ctx, req)
	if err != nil {
		return "", nil, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	var text strings.Builder
	usage := &models.TokenUsage{}
	for {
		ev, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("read stream: %w", err)
		}
		switch ev.Type {
		case models.EventTextDelta:
			text.WriteString(ev.Content)
		case models.EventMessageComplete:
			if ev.Usage != nil {
				*usage = *ev.Usage
			}
		case models.EventError:
			return "", nil, errors.New(ev.Error)
		}
	}
	return text.String(), usage, nil
}

// Transcript renders messages as the text sent for summarization. System
// messages are skipped and long contents are truncated per role.
func Transcript(messages []models.Message) string {
	sections := []string{prompt.TranscriptHeader}
	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			continue
		case models.RoleTool:
			id := m.ToolCallID
			if id == "" {
				id = "unknown"
			}
			sections = append(sections, fmt.Sprintf("[Tool Result (%s)]:\n%s", id,
				truncate(m.Content, maxToolChars, "\n... [tool output truncated]")))
		case models.RoleAssistant:
			if m.Content != "" {
				sections = append(sections, "Assistant:\n"+
					truncate(m.Content, maxAssistantChars, "\n... [response truncated]"))
			}
			if len(m.ToolCalls) > 0 {
				calls := make([]string, len(m.ToolCalls))
				for i, tc := range m.ToolCalls {
					calls[i] = fmt.Sprintf("  - %s(%s)", tc.Name, truncate(argsJSON(tc.Arguments), maxArgsChars, "..."))
				}
				sections = append(sections, "Assistant called tools:\n"+strings.Join(calls, "\n"))
			}
		default:
			sections = append(sections, "User:\n"+
				truncate(m.Content, maxUserChars, "\n... [message truncated]"))
		}
	}
	return strings.Join(sections, sectionSeparator)
}

func argsJSON(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func truncate(s string, limit int, suffix string) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + suffix
}
