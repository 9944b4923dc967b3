package gemini

import (
	"context"
	"iter"

	"google.golang.org/genai"
)

// MockGeminiClient is a mock implementation of GeminiClient for testing.
// It yields Chunks in order, then Err if set.
type MockGeminiClient struct {
	Chunks []*genai.GenerateContentResponse
	Err    error

	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

func (m *MockGeminiClient) GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	m.Contents = contents
	m.Config = config
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, c := range m.Chunks {
			if !yield(c, nil) {
				return
			}
		}
		if m.Err != nil {
			yield(nil, m.Err)
		}
	}
}

func textChunk(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}},
		}},
	}
}
