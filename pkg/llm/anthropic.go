package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// AnthropicDialect implements POST <base>/v1/messages streaming (spec
// §4.3), parsing the message_start/content_block_delta/message_delta
// event taxonomy.
type AnthropicDialect struct {
	client *http.Client
}

func NewAnthropicDialect() *AnthropicDialect {
	return &AnthropicDialect{client: newHTTPClient()}
}

type anthropicEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type         string `json:"type"`
		Text         string `json:"text"`
		StopReason   string `json:"stop_reason"`
		Usage        struct {
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	} `json:"delta"`
	ContentBlock struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content_block"`
	Message struct {
		Usage struct {
			InputTokens int `json:"input_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

func (d *AnthropicDialect) Stream(ctx context.Context, cfg ProviderConfig, input GenerateInput) (<-chan Chunk, error) {
	body := buildAnthropicBody(cfg, input)
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal anthropic request: %w", err)
	}
	url := strings.TrimRight(cfg.EndpointURL, "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		data := readErrorBody(resp)
		resp.Body.Close()
		return nil, fmt.Errorf("llm: anthropic http %d: %s", resp.StatusCode, string(data))
	}

	out := make(chan Chunk, 16)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		var inputTokens int
		for payload := range sseLines(resp.Body) {
			select {
			case <-ctx.Done():
				return
			default:
			}
			var evt anthropicEvent
			if err := json.Unmarshal([]byte(payload), &evt); err != nil {
				continue
			}
			switch evt.Type {
			case "message_start":
				inputTokens = evt.Message.Usage.InputTokens
			case "content_block_start":
				if evt.ContentBlock.Text != "" {
					out <- TextChunk{Text: evt.ContentBlock.Text}
				}
			case "content_block_delta":
				if evt.Delta.Text != "" {
					out <- TextChunk{Text: evt.Delta.Text}
				}
			case "message_delta":
				if evt.Delta.Usage.OutputTokens > 0 {
					out <- UsageChunk{Usage: Usage{
						PromptTokens:     inputTokens,
						CompletionTokens: evt.Delta.Usage.OutputTokens,
						TotalTokens:      inputTokens + evt.Delta.Usage.OutputTokens,
					}}
				}
			}
		}
	}()
	return out, nil
}

func buildAnthropicBody(cfg ProviderConfig, input GenerateInput) map[string]any {
	var systemPrompt string
	messages := make([]map[string]any, 0, len(input.Messages))
	for _, m := range input.Messages {
		if m.Role == RoleSystem {
			systemPrompt = joinNonEmpty(systemPrompt, m.Content)
			continue
		}
		messages = append(messages, map[string]any{"role": string(m.Role), "content": m.Content})
	}
	body := map[string]any{
		"model":      cfg.Model,
		"messages":   messages,
		"stream":     true,
		"max_tokens": 4096,
	}
	if systemPrompt != "" {
		body["system"] = systemPrompt
	}
	mergeExtraParams(body, cfg.ExtraParams, "input")
	mergeExtraParams(body, input.ExtraParams, "input")
	return body
}

func joinNonEmpty(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "\n" + b
}
