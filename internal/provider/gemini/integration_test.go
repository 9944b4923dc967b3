//go:build integration

package gemini

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	provider "github.com/Cyclone1070/drift/internal/provider/models"
	"github.com/stretchr/testify/require"
)

func TestIntegration_StreamText(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := Dial(ctx, apiKey)
	require.NoError(t, err)

	p := NewProvider(client, "gemini-2.5-flash", nil)
	s, err := p.Stream(ctx, &provider.Request{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "Reply with the single word: pong"}},
	})
	require.NoError(t, err)
	defer s.Close()

	var text strings.Builder
	for _, ev := range drain(t, s) {
		require.NotEqual(t, provider.EventError, ev.Type, ev.Error)
		text.WriteString(ev.Content)
	}
	require.Contains(t, strings.ToLower(text.String()), "pong")
}
