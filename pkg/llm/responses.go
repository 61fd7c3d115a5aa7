package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ResponsesDialect implements POST <base>/responses, non-streaming
// . Used only when extra_params.tools contains a web_search
// entry, selected by DialectFor.
type ResponsesDialect struct {
	client *http.Client
}

func NewResponsesDialect() *ResponsesDialect {
	return &ResponsesDialect{client: newHTTPClient()}
}

type responsesOutputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responsesOutputItem struct {
	Type    string                   `json:"type"`
	Content []responsesOutputContent `json:"content"`
}

type responsesUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type responsesBody struct {
	OutputText string                `json:"output_text"`
	Output     []responsesOutputItem `json:"output"`
	Usage      responsesUsage        `json:"usage"`
}

func (d *ResponsesDialect) Stream(ctx context.Context, cfg ProviderConfig, input GenerateInput) (<-chan Chunk, error) {
	body := buildResponsesBody(cfg, input)
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal responses request: %w", err)
	}
	url := strings.TrimRight(cfg.EndpointURL, "/") + "/responses"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build responses request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("responses request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		data := readErrorBody(resp)
		return nil, fmt.Errorf("llm: openai-responses http %d: %s", resp.StatusCode, string(data))
	}

	var parsed responsesBody
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode responses response: %w", err)
	}

	text := parsed.OutputText
	if text == "" {
		for _, item := range parsed.Output {
			if item.Type != "message" {
				continue
			}
			for _, c := range item.Content {
				if c.Text != "" {
					text = c.Text
					break
				}
			}
			if text != "" {
				break
			}
		}
	}

	out := make(chan Chunk, 2)
	go func() {
		defer close(out)
		if text != "" {
			out <- TextChunk{Text: text}
		}
		out <- UsageChunk{Usage: Usage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		}}
	}()
	return out, nil
}

func buildResponsesBody(cfg ProviderConfig, input GenerateInput) map[string]any {
	body := map[string]any{
		"model": cfg.Model,
		"input": toOpenAIMessages(input.Messages),
	}
	mergeExtraParams(body, cfg.ExtraParams, "input")
	mergeExtraParams(body, input.ExtraParams, "input")
	return body
}
