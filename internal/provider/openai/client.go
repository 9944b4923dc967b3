package openai

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// ChunkReceiver yields the chunks of one streamed chat completion.
type ChunkReceiver interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// ChatClient opens streamed chat completions. It is satisfied by
// RealChatClient and by fakes in tests.
type ChatClient interface {
	OpenStream(ctx context.Context, req openai.ChatCompletionRequest) (ChunkReceiver, error)
}

// RealChatClient wraps the go-openai client.
type RealChatClient struct {
	client *openai.Client
}

// NewRealChatClient builds a client for apiKey. A non-empty baseURL points
// it at an OpenAI-compatible server.
func NewRealChatClient(apiKey, baseURL string) *RealChatClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &RealChatClient{client: openai.NewClientWithConfig(config)}
}

func (c *RealChatClient) OpenStream(ctx context.Context, req openai.ChatCompletionRequest) (ChunkReceiver, error) {
	s, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return s, nil
}
