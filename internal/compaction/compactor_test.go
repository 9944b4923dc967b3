package compaction

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Cyclone1070/drift/internal/prompt"
	"github.com/Cyclone1070/drift/internal/provider/models"
	"github.com/Cyclone1070/drift/internal/testing/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleConversation() []models.Message {
	return []models.Message{
		{Role: models.RoleSystem, Content: "system prompt"},
		{Role: models.RoleUser, Content: "fix the bug"},
		{Role: models.RoleAssistant, Content: "Looking.", ToolCalls: []models.ToolCall{
			{ID: "c1", Name: "read_file", Arguments: map[string]any{"path": "main.go"}},
		}},
		{Role: models.RoleTool, ToolCallID: "c1", ToolName: "read_file", Content: "package main"},
	}
}

func TestTranscript(t *testing.T) {
	out := Transcript(sampleConversation())

	sections := strings.Split(out, sectionSeparator)
	require.Len(t, sections, 5)
	assert.Equal(t, prompt.TranscriptHeader, sections[0])
	assert.Equal(t, "User:\nfix the bug", sections[1])
	assert.Equal(t, "Assistant:\nLooking.", sections[2])
	assert.Equal(t, `Assistant called tools:`+"\n"+`  - read_file({"path":"main.go"})`, sections[3])
	assert.Equal(t, "[Tool Result (c1)]:\npackage main", sections[4])
	assert.NotContains(t, out, "system prompt")
}

func TestTranscript_Truncation(t *testing.T) {
	msgs := []models.Message{
		{Role: models.RoleUser, Content: strings.Repeat("u", 1600)},
		{Role: models.RoleAssistant, Content: strings.Repeat("a", 3001)},
		{Role: models.RoleTool, Content: strings.Repeat("t", 2000)},
		{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{
			{Name: "write_file", Arguments: map[string]any{"content": strings.Repeat("c", 600)}},
		}},
	}
	sections := strings.Split(Transcript(msgs), sectionSeparator)
	require.Len(t, sections, 5)

	assert.Equal(t, "User:\n"+strings.Repeat("u", 1500)+"\n... [message truncated]", sections[1])
	assert.Equal(t, "Assistant:\n"+strings.Repeat("a", 3000)+"\n... [response truncated]", sections[2])
	assert.Equal(t, "[Tool Result (unknown)]:\n"+strings.Repeat("t", 2000), sections[3])
	assert.True(t, strings.HasSuffix(sections[4], "...)"))
	assert.Len(t, sections[4], len("Assistant called tools:\n  - write_file(")+500+len("...)"))
}

func TestSummarize_TooFewMessages(t *testing.T) {
	client := testhelpers.NewMockStreamClient()
	c := New(client, quiet())

	summary, usage := c.Summarize(context.Background(), sampleConversation()[:2])
	assert.Nil(t, summary)
	assert.Nil(t, usage)
	assert.Equal(t, 0, client.Calls())
}

func TestSummarize_Success(t *testing.T) {
	client := testhelpers.NewMockStreamClient().WithEvents(
		models.TextDelta("ORIGINAL GOAL: fix"),
		models.TextDelta(" the bug"),
		testhelpers.Complete("stop", testhelpers.Usage(900, 100)),
	)
	c := New(client, quiet())

	summary, usage := c.Summarize(context.Background(), sampleConversation())
	require.NotNil(t, summary)
	require.NotNil(t, usage)
	assert.Equal(t, "ORIGINAL GOAL: fix the bug", *summary)
	assert.Equal(t, 1000, usage.TotalTokens)

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, prompt.Compaction(), reqs[0].System)
	assert.Empty(t, reqs[0].Tools)
	require.Len(t, reqs[0].Messages, 1)
	assert.Equal(t, models.RoleUser, reqs[0].Messages[0].Role)
	assert.True(t, strings.HasPrefix(reqs[0].Messages[0].Content, prompt.TranscriptHeader))
}

func TestSummarize_Failures(t *testing.T) {
	tests := []struct {
		name   string
		client *testhelpers.MockStreamClient
	}{
		{"open error", testhelpers.NewMockStreamClient().WithOpenError(errors.New("unavailable"))},
		{"error event", testhelpers.NewMockStreamClient().WithEvents(models.TextDelta("partial"), models.ErrorEvent("overloaded"))},
		{"empty output", testhelpers.NewMockStreamClient().WithEvents(testhelpers.Complete("stop", testhelpers.Usage(10, 0)))},
		{"whitespace output", testhelpers.NewMockStreamClient().WithEvents(models.TextDelta("  \n"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, usage := New(tt.client, quiet()).Summarize(context.Background(), sampleConversation())
			assert.Nil(t, summary)
			assert.Nil(t, usage)
		})
	}
}
