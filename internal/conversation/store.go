// Package conversation owns the message history sent to the model: token
// accounting, the compaction trigger and tool-output pruning.
package conversation

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Cyclone1070/drift/internal/prompt"
	"github.com/Cyclone1070/drift/internal/provider/models"
)

// compressionThreshold is the fraction of the context window that, once
// exceeded by the latest request, triggers compaction.
const compressionThreshold = 0.8

// Store is the conversation of one session. It is mutated only by the
// owning loop and is not safe for concurrent use.
type Store struct {
	tokenizer     Tokenizer
	contextWindow int
	systemPrompt  string
	logger        *slog.Logger
	now           func() time.Time

	messages    []models.Message
	latestUsage models.TokenUsage
	totalUsage  models.TokenUsage
}

// Option configures a Store.
type Option func(*Store)

func WithTokenizer(t Tokenizer) Option {
	return func(s *Store) { s.tokenizer = t }
}

func WithSystemPrompt(p string) Option {
	return func(s *Store) { s.systemPrompt = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty conversation for a model with the given context window.
func NewStore(contextWindow int, opts ...Option) *Store {
	s := &Store{
		tokenizer:     Estimator{},
		contextWindow: contextWindow,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) SetSystemPrompt(p string) { s.systemPrompt = p }
func (s *Store) SystemPrompt() string     { return s.systemPrompt }
func (s *Store) ContextWindow() int       { return s.contextWindow }

// AddUserMessage appends a user message.
func (s *Store) AddUserMessage(text string) {
	s.append(models.Message{Role: models.RoleUser, Content: text})
}

// AddAssistantMessage appends an assistant message with optional tool calls.
func (s *Store) AddAssistantMessage(text string, toolCalls []models.ToolCall) {
	s.append(models.Message{Role: models.RoleAssistant, Content: text, ToolCalls: toolCalls})
}

// AddToolResult appends the result of the tool call callID.
func (s *Store) AddToolResult(callID, toolName, text string) {
	s.append(models.Message{Role: models.RoleTool, Content: text, ToolCallID: callID, ToolName: toolName})
}

func (s *Store) append(m models.Message) {
	m.TokenCount = s.countMessage(m)
	s.messages = append(s.messages, m)
	s.logger.Debug("message added", "role", m.Role, "tokens", m.TokenCount)
}

func (s *Store) countMessage(m models.Message) int {
	n := s.tokenizer.Count(m.Content)
	for _, tc := range m.ToolCalls {
		n += s.tokenizer.Count(tc.Name)
		if len(tc.Arguments) > 0 {
			args, _ := json.Marshal(tc.Arguments)
			n += s.tokenizer.Count(string(args))
		}
	}
	return n
}

// Messages materializes the conversation for the model: the system prompt
// (if any) followed by every stored message in order.
func (s *Store) Messages() []models.Message {
	out := make([]models.Message, 0, len(s.messages)+1)
	if s.systemPrompt != "" {
		out = append(out, models.Message{
			Role:       models.RoleSystem,
			Content:    s.systemPrompt,
			TokenCount: s.tokenizer.Count(s.systemPrompt),
		})
	}
	return append(out, s.messages...)
}

// History returns the stored messages without the system prompt.
func (s *Store) History() []models.Message {
	return append([]models.Message(nil), s.messages...)
}

func (s *Store) Len() int { return len(s.messages) }

// NeedsCompression reports whether the latest request used more than 80%
// of the context window. Cumulative usage is never considered.
func (s *Store) NeedsCompression() bool {
	if s.contextWindow <= 0 {
		return false
	}
	return float64(s.latestUsage.TotalTokens) > compressionThreshold*float64(s.contextWindow)
}

// ReplaceWithSummary discards the whole history and replaces it with a
// user/assistant/user reconstruction built around summary.
func (s *Store) ReplaceWithSummary(summary string) {
	before := len(s.messages)
	s.messages = nil
	s.AddUserMessage(prompt.Continuation(summary))
	s.AddAssistantMessage(prompt.Acknowledgement, nil)
	s.AddUserMessage(prompt.ContinueDirective)
	s.logger.Info("context replaced with summary", "previous_messages", before)
}

// AddUsage accumulates usage into the session total.
func (s *Store) AddUsage(u models.TokenUsage) {
	s.totalUsage = s.totalUsage.Add(u)
}

// SetLatestUsage records the usage of the most recent request.
func (s *Store) SetLatestUsage(u models.TokenUsage) {
	s.latestUsage = u
}

func (s *Store) LatestUsage() models.TokenUsage { return s.latestUsage }
func (s *Store) TotalUsage() models.TokenUsage  { return s.totalUsage }

// Clear removes all messages. Usage totals are kept.
func (s *Store) Clear() {
	s.messages = nil
}

// Restore replaces the history and total usage, e.g. from a snapshot.
// Token counts missing from the input are recomputed.
func (s *Store) Restore(messages []models.Message, total models.TokenUsage) {
	s.messages = make([]models.Message, len(messages))
	for i, m := range messages {
		if m.TokenCount == 0 {
			m.TokenCount = s.countMessage(m)
		}
		s.messages[i] = m
	}
	s.totalUsage = total
	s.latestUsage = models.TokenUsage{}
}
