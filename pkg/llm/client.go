// Package llm implements the dialect-aware Provider LLM Client (spec
// §4.3): a provider-name normalizer plus one streaming dialect per
// provider family, all presenting the same lazy finite chunk iterator.
package llm

import "context"

// Role is a closed set of conversation roles.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ConversationMessage is one turn in the message history sent to a
// provider.
type ConversationMessage struct {
	Role    Role
	Content string
}

// ToolDefinition is a tool an agent may call, described to the provider
// in its native tool-calling format by each dialect.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// GenerateInput is the provider-agnostic request every dialect adapts to
// its wire format.
type GenerateInput struct {
	Model       string
	Messages    []ConversationMessage
	Tools       []ToolDefinition
	Temperature float64
	// ExtraParams is merged into the dialect's request body, except for
	// the protected keys each dialect refuses to override .
	ExtraParams map[string]any
}

// Usage is the normalized token accounting every dialect produces,
// regardless of its native usage field names.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChunkType tags the Chunk union.
type ChunkType string

const (
	ChunkTypeText  ChunkType = "text"
	ChunkTypeUsage ChunkType = "usage"
	ChunkTypeError ChunkType = "error"
)

// Chunk is the tagged union every dialect emits. The spec's "lazy finite
// sequence of (chunk_text_or_nil, usage_or_nil) pairs" is realized as a
// channel of these three concrete shapes.
type Chunk interface {
	chunkType() ChunkType
}

type TextChunk struct{ Text string }
type UsageChunk struct{ Usage Usage }
type ErrorChunk struct{ Err error }

func (TextChunk) chunkType() ChunkType  { return ChunkTypeText }
func (UsageChunk) chunkType() ChunkType { return ChunkTypeUsage }
func (ErrorChunk) chunkType() ChunkType { return ChunkTypeError }

// Type exposes the tag to callers outside the package (a type switch on
// the concrete type works too; this is for callers that only need the
// tag, e.g. logging).
func Type(c Chunk) ChunkType { return c.chunkType() }

// ProviderConfig is the subset of core.ProviderConfig a dialect needs to
// issue a request: model, auth, and endpoint.
type ProviderConfig struct {
	ProviderName string
	Model        string
	APIKey       string
	EndpointURL  string
	ExtraParams  map[string]any
}

// Dialect streams one generation. The returned channel is closed when
// the dialect has no more chunks to emit (normal completion, error, or
// ctx cancellation); a dialect never blocks forever after ctx.Done().
type Dialect interface {
	Stream(ctx context.Context, cfg ProviderConfig, input GenerateInput) (<-chan Chunk, error)
}
