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

func TestOpenAICompatDialect_StreamsTextThenUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[],\"usage\":{\"prompt_tokens\":3,\"completion_tokens\":2,\"total_tokens\":5}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	d := NewOpenAICompatDialect()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := d.Stream(ctx, ProviderConfig{Model: "gpt-test", EndpointURL: srv.URL, APIKey: "k"}, GenerateInput{
		Messages: []ConversationMessage{{Role: RoleUser, Content: "hi"}},
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
	require.Equal(t, Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}, usage)
}

func TestOpenAICompatDialect_RetriesWithoutStreamOptions(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"message":"stream_options.include_usage is not supported"}}`)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	d := NewOpenAICompatDialect()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := d.Stream(ctx, ProviderConfig{Model: "gpt-test", EndpointURL: srv.URL, APIKey: "k"}, GenerateInput{
		Messages: []ConversationMessage{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	var text string
	for c := range ch {
		if tc, ok := c.(TextChunk); ok {
			text += tc.Text
		}
	}
	require.Equal(t, "ok", text)
	require.Equal(t, 2, attempts)
}
