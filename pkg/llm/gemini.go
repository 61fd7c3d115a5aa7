package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// GeminiDialect implements POST .../models/<model>:generateContent,
// non-streaming . The single response is still presented as
// a finite chunk sequence so callers don't special-case dialects.
type GeminiDialect struct {
	client *http.Client
}

func NewGeminiDialect() *GeminiDialect {
	return &GeminiDialect{client: newHTTPClient()}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiResponse struct {
	Candidates   []geminiCandidate    `json:"candidates"`
	UsageMetadata geminiUsageMetadata `json:"usageMetadata"`
}

func (d *GeminiDialect) Stream(ctx context.Context, cfg ProviderConfig, input GenerateInput) (<-chan Chunk, error) {
	body := buildGeminiBody(input)
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", strings.TrimRight(cfg.EndpointURL, "/"), cfg.Model, cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		data := readErrorBody(resp)
		return nil, fmt.Errorf("llm: gemini http %d: %s", resp.StatusCode, string(data))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}

	out := make(chan Chunk, 2)
	go func() {
		defer close(out)
		if len(parsed.Candidates) > 0 && len(parsed.Candidates[0].Content.Parts) > 0 {
			out <- TextChunk{Text: parsed.Candidates[0].Content.Parts[0].Text}
		}
		out <- UsageChunk{Usage: Usage{
			PromptTokens:     parsed.UsageMetadata.PromptTokenCount,
			CompletionTokens: parsed.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      parsed.UsageMetadata.TotalTokenCount,
		}}
	}()
	return out, nil
}

func buildGeminiBody(input GenerateInput) map[string]any {
	contents := make([]map[string]any, 0, len(input.Messages))
	for _, m := range input.Messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		if m.Role == RoleSystem {
			continue
		}
		contents = append(contents, map[string]any{
			"role":  role,
			"parts": []map[string]any{{"text": m.Content}},
		})
	}
	body := map[string]any{"contents": contents}
	mergeExtraParams(body, input.ExtraParams, "contents")
	return body
}
