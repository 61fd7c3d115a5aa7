package config

import (
	"fmt"
	"sync"
)

// ProviderConfig describes one configured LLM provider endpoint.
type ProviderConfig struct {
	ID          string         `yaml:"id" validate:"required"`
	ProviderName string        `yaml:"provider_name" validate:"required"`
	ModelType   string         `yaml:"model_type" validate:"required"`
	APIKey      string         `yaml:"api_key" validate:"required"`
	EndpointURL string         `yaml:"endpoint_url,omitempty"`
	ExtraParams map[string]any `yaml:"extra_params,omitempty"`
}

// defaultEndpoints maps a canonical provider name to its default
// endpoint . Canonical names matching
// llm.RequiresExplicitEndpoint are deliberately absent: an
// openai-compatible endpoint always has to be supplied, since "compatible"
// servers have no single default.
var defaultEndpoints = map[string]string{
	"anthropic": "https://api.anthropic.com",
	"gemini":    "https://generativelanguage.googleapis.com/v1beta",
}

// DefaultEndpoint returns the normalization-table default for a
// canonical provider name, or "" if none exists.
func DefaultEndpoint(canonicalProviderName string) string {
	return defaultEndpoints[canonicalProviderName]
}

// ProviderRegistry stores provider configs in memory with thread-safe
// access (same idiom as AgentRegistry / the teacher's ChainRegistry).
type ProviderRegistry struct {
	byID map[string]ProviderConfig
	mu   sync.RWMutex
}

func NewProviderRegistry(configs []ProviderConfig) *ProviderRegistry {
	r := &ProviderRegistry{byID: make(map[string]ProviderConfig, len(configs))}
	for _, c := range configs {
		r.byID[c.ID] = c
	}
	return r
}

func (r *ProviderRegistry) Get(id string) (ProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("%w: %s", ErrProviderNotFound, id)
	}
	return c, nil
}

func (r *ProviderRegistry) All() []ProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ProviderConfig, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out
}
