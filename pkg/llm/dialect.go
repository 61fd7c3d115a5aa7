package llm

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// providerAliases folds common spellings into the canonical provider
// family name before dispatch. Grounded on original_source's alias map
// : this is a superset of plain
// lowercase/hyphen folding.
var providerAliases = map[string]string{
	"gpt":              "openai-compatible",
	"openai":           "openai-compatible",
	"openai-compat":    "openai-compatible",
	"claude":           "anthropic",
	"google":           "gemini",
	"vertex":           "gemini",
	"vertexai":         "gemini",
	"vertex-ai":        "gemini",
	"gemini":           "gemini",
	"anthropic":        "anthropic",
	"openai-responses": "openai-responses",
	"responses":        "openai-responses",
}

// RequiresExplicitEndpoint reports whether a canonical provider name
// must carry an explicit endpoint: every name starting with
// "openai-compatible".
func RequiresExplicitEndpoint(canonical string) bool {
	return strings.HasPrefix(canonical, "openai-compatible")
}

// NormalizeProviderName is idempotent :
// lowercase, hyphenate whitespace/underscores, then apply the alias
// table. Normalizing an already-canonical name returns it unchanged.
func NormalizeProviderName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	n = strings.ReplaceAll(n, " ", "-")
	if alias, ok := providerAliases[n]; ok {
		return alias
	}
	return n
}

// protectedKeysCommon lists request-body keys ExtraParams may never override,
// per dialect . "model"/"messages"/"stream" are universal;
// each dialect adds its own (input/contents).
var protectedKeysCommon = map[string]bool{
	"model":    true,
	"messages": true,
	"stream":   true,
}

func mergeExtraParams(body map[string]any, extra map[string]any, extraProtected ...string) {
	protected := make(map[string]bool, len(protectedKeysCommon)+len(extraProtected))
	for k := range protectedKeysCommon {
		protected[k] = true
	}
	for _, k := range extraProtected {
		protected[k] = true
	}
	for k, v := range extra {
		if protected[k] {
			continue
		}
		body[k] = v
	}
}

// HTTPTimeout is the provider HTTP timeout from spec §5 ("provider HTTP
// = 60 s").
const HTTPTimeout = 60 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: HTTPTimeout}
}

// DialectFor returns the streaming dialect for a canonical provider
// name. extraParams is consulted only to pick OpenAI Responses API over
// plain OpenAI-compatible .
func DialectFor(canonical string, extraParams map[string]any) (Dialect, error) {
	switch canonical {
	case "openai-compatible":
		if usesWebSearch(extraParams) {
			return NewResponsesDialect(), nil
		}
		return NewOpenAICompatDialect(), nil
	case "openai-responses":
		return NewResponsesDialect(), nil
	case "anthropic":
		return NewAnthropicDialect(), nil
	case "gemini":
		return NewGeminiDialect(), nil
	default:
		return nil, fmt.Errorf("llm: no dialect for provider %q", canonical)
	}
}

func usesWebSearch(extraParams map[string]any) bool {
	tools, ok := extraParams["tools"].([]any)
	if !ok {
		return false
	}
	for _, t := range tools {
		if m, ok := t.(map[string]any); ok {
			if m["type"] == "web_search" || m["name"] == "web_search" {
				return true
			}
		}
	}
	return false
}
