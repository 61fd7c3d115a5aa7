package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// OpenAICompatDialect implements the default dialect: POST
// <base>/chat/completions, streamed SSE .
type OpenAICompatDialect struct {
	client *http.Client
}

func NewOpenAICompatDialect() *OpenAICompatDialect {
	return &OpenAICompatDialect{client: newHTTPClient()}
}

type openAIChoiceDelta struct {
	Content string `json:"content"`
}

type openAIChoiceMessage struct {
	Content string `json:"content"`
}

type openAIChoice struct {
	Delta   openAIChoiceDelta    `json:"delta"`
	Text    string               `json:"text"`
	Message openAIChoiceMessage  `json:"message"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openAIStreamEvent struct {
	Choices []openAIChoice `json:"choices"`
	Usage   *openAIUsage   `json:"usage"`
}

type openAIErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (d *OpenAICompatDialect) Stream(ctx context.Context, cfg ProviderConfig, input GenerateInput) (<-chan Chunk, error) {
	return d.stream(ctx, cfg, input, true)
}

func (d *OpenAICompatDialect) stream(ctx context.Context, cfg ProviderConfig, input GenerateInput, withUsageOptions bool) (<-chan Chunk, error) {
	body := buildOpenAIBody(cfg, input, withUsageOptions)

	resp, err := d.post(ctx, cfg, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		data := readErrorBody(resp)
		resp.Body.Close()
		msg := strings.ToLower(string(data))
		mentionsStreamOptions := strings.Contains(msg, "stream_options") || strings.Contains(msg, "include_usage")
		if withUsageOptions && mentionsStreamOptions {
			// Retry once without stream_options/include_usage .
			return d.stream(ctx, cfg, input, false)
		}
		return nil, fmt.Errorf("llm: openai-compatible http %d: %s", resp.StatusCode, string(data))
	}

	out := make(chan Chunk, 16)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		for payload := range sseLines(resp.Body) {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if payload == "[DONE]" {
				return
			}
			var evt openAIStreamEvent
			if err := json.Unmarshal([]byte(payload), &evt); err != nil {
				continue
			}
			if evt.Usage != nil {
				out <- UsageChunk{Usage: Usage{
					PromptTokens:     evt.Usage.PromptTokens,
					CompletionTokens: evt.Usage.CompletionTokens,
					TotalTokens:      evt.Usage.TotalTokens,
				}}
				continue
			}
			if len(evt.Choices) == 0 {
				continue
			}
			c := evt.Choices[0]
			text := firstNonEmpty(c.Delta.Content, c.Text, c.Message.Content)
			if text != "" {
				out <- TextChunk{Text: text}
			}
		}
	}()
	return out, nil
}

func (d *OpenAICompatDialect) post(ctx context.Context, cfg ProviderConfig, body map[string]any) (*http.Response, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal openai-compatible request: %w", err)
	}
	url := strings.TrimRight(cfg.EndpointURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build openai-compatible request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	return d.client.Do(req)
}

func buildOpenAIBody(cfg ProviderConfig, input GenerateInput, withUsageOptions bool) map[string]any {
	body := map[string]any{
		"model":       cfg.Model,
		"messages":    toOpenAIMessages(input.Messages),
		"stream":      true,
		"temperature": input.Temperature,
	}
	if withUsageOptions {
		body["stream_options"] = map[string]any{"include_usage": true}
	}
	if len(input.Tools) > 0 {
		body["tools"] = toOpenAITools(input.Tools)
	}
	mergeExtraParams(body, cfg.ExtraParams)
	mergeExtraParams(body, input.ExtraParams)
	return body
}

func toOpenAIMessages(msgs []ConversationMessage) []map[string]any {
	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, map[string]any{"role": string(m.Role), "content": m.Content})
	}
	return out
}

func toOpenAITools(tools []ToolDefinition) []map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		out = append(out, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func readErrorBody(resp *http.Response) []byte {
	var body openAIErrorBody
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&body); err == nil && body.Error.Message != "" {
		return []byte(body.Error.Message)
	}
	return []byte(resp.Status)
}
