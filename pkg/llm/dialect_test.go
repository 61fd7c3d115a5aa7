package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeProviderName_Idempotent(t *testing.T) {
	cases := []struct{ in, want string }{
		{"OpenAI", "openai-compatible"},
		{"gpt", "openai-compatible"},
		{"Claude", "anthropic"},
		{"anthropic", "anthropic"},
		{"Google", "gemini"},
		{"vertex_ai", "gemini"},
		{"openai-compatible", "openai-compatible"},
	}
	for _, c := range cases {
		got := NormalizeProviderName(c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
		// idempotence: normalizing the output again is a no-op.
		assert.Equal(t, got, NormalizeProviderName(got))
	}
}

func TestRequiresExplicitEndpoint(t *testing.T) {
	assert.True(t, RequiresExplicitEndpoint("openai-compatible"))
	assert.False(t, RequiresExplicitEndpoint("anthropic"))
	assert.False(t, RequiresExplicitEndpoint("gemini"))
}

func TestDialectFor_SelectsResponsesOnWebSearch(t *testing.T) {
	d, err := DialectFor("openai-compatible", map[string]any{
		"tools": []any{map[string]any{"type": "web_search"}},
	})
	assert.NoError(t, err)
	_, isResponses := d.(*ResponsesDialect)
	assert.True(t, isResponses)
}

func TestDialectFor_PlainOpenAICompat(t *testing.T) {
	d, err := DialectFor("openai-compatible", nil)
	assert.NoError(t, err)
	_, isCompat := d.(*OpenAICompatDialect)
	assert.True(t, isCompat)
}

func TestDialectFor_UnknownProvider(t *testing.T) {
	_, err := DialectFor("unknown-provider", nil)
	assert.Error(t, err)
}

func TestMergeExtraParams_ProtectsReservedKeys(t *testing.T) {
	body := map[string]any{"model": "m1", "messages": []any{}, "stream": true}
	mergeExtraParams(body, map[string]any{"model": "attacker", "temperature": 0.9})
	assert.Equal(t, "m1", body["model"])
	assert.Equal(t, 0.9, body["temperature"])
}
