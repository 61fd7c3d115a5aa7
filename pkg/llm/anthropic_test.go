package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAnthropicDialect_StreamsTextThenSynthesizedUsage(t *testing.T) {
	var gotAPIKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("x-api-key")
		require.Equal(t, "/v1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"type":"message_start","message":{"usage":{"input_tokens":7}}}`+"\n\n")
		fmt.Fprint(w, `data: {"type":"content_block_start","content_block":{"type":"text","text":""}}`+"\n\n")
		fmt.Fprint(w, `data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"Hel"}}`+"\n\n")
		fmt.Fprint(w, `data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"lo"}}`+"\n\n")
		fmt.Fprint(w, `data: {"type":"message_delta","delta":{"stop_reason":"end_turn","usage":{"output_tokens":2}}}`+"\n\n")
	}))
	defer srv.Close()

	d := NewAnthropicDialect()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := d.Stream(ctx, ProviderConfig{Model: "claude-test", EndpointURL: srv.URL, APIKey: "sk-ant-test"}, GenerateInput{
		Messages: []ConversationMessage{
			{Role: RoleSystem, Content: "be terse"},
			{Role: RoleUser, Content: "hi"},
		},
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
	require.Equal(t, "Hello", text)
	require.Equal(t, Usage{PromptTokens: 7, CompletionTokens: 2, TotalTokens: 9}, usage)
	require.Equal(t, "sk-ant-test", gotAPIKey)
}

func TestAnthropicDialect_HTTPErrorSurfacesBeforeChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()

	d := NewAnthropicDialect()
	_, err := d.Stream(context.Background(), ProviderConfig{Model: "claude-test", EndpointURL: srv.URL, APIKey: "bad"}, GenerateInput{
		Messages: []ConversationMessage{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
}

func TestBuildAnthropicBody_FoldsSystemMessagesIntoTopLevelSystemField(t *testing.T) {
	body := buildAnthropicBody(ProviderConfig{Model: "claude-test"}, GenerateInput{
		Messages: []ConversationMessage{
			{Role: RoleSystem, Content: "first"},
			{Role: RoleSystem, Content: "second"},
			{Role: RoleUser, Content: "hi"},
		},
	})
	require.Equal(t, "first\nsecond", body["system"])
	msgs, ok := body["messages"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	require.Equal(t, "user", msgs[0]["role"])
}
