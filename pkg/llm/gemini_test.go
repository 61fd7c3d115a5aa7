package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeminiDialect_NonStreamingExtractsFirstCandidateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, ":generateContent")
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{{Content: geminiContent{Parts: []geminiPart{{Text: "Paris"}}}}},
			UsageMetadata: geminiUsageMetadata{
				PromptTokenCount: 4, CandidatesTokenCount: 1, TotalTokenCount: 5,
			},
		})
	}))
	defer srv.Close()

	d := NewGeminiDialect()
	ch, err := d.Stream(context.Background(), ProviderConfig{Model: "gemini-test", EndpointURL: srv.URL, APIKey: "test-key"}, GenerateInput{
		Messages: []ConversationMessage{{Role: RoleUser, Content: "capital of France?"}},
	})
	require.NoError(t, err)

	var text string
	var usage Usage
	for c := range ch {
		switch v := c.(type) {
		case TextChunk:
			text += v.Text
		case UsageChunk:
			usage = v.Usage
		}
	}
	require.Equal(t, "Paris", text)
	require.Equal(t, Usage{PromptTokens: 4, CompletionTokens: 1, TotalTokens: 5}, usage)
}

func TestGeminiDialect_EmptyCandidatesStillEmitsUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiResponse{UsageMetadata: geminiUsageMetadata{TotalTokenCount: 3}})
	}))
	defer srv.Close()

	d := NewGeminiDialect()
	ch, err := d.Stream(context.Background(), ProviderConfig{Model: "gemini-test", EndpointURL: srv.URL, APIKey: "k"}, GenerateInput{})
	require.NoError(t, err)

	var chunks []Chunk
	for c := range ch {
		chunks = append(chunks, c)
	}
	require.Len(t, chunks, 1)
	_, ok := chunks[0].(UsageChunk)
	require.True(t, ok)
}

func TestBuildGeminiBody_MapsAssistantRoleToModelAndDropsSystem(t *testing.T) {
	body := buildGeminiBody(GenerateInput{Messages: []ConversationMessage{
		{Role: RoleSystem, Content: "ignored"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}})
	contents, ok := body["contents"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, contents, 2)
	require.Equal(t, "user", contents[0]["role"])
	require.Equal(t, "model", contents[1]["role"])
}
