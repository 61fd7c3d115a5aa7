package config

import (
	"fmt"
	"strings"
	"sync"
)

// AgentProfile is a named specialist an assigned sub-task runs under.
type AgentProfile struct {
	Name         string   `yaml:"name" validate:"required"`
	Description  string   `yaml:"description,omitempty"`
	SystemPrompt string   `yaml:"system_prompt" validate:"required"`
	Tools        []string `yaml:"tools,omitempty"`
	AgentID      string   `yaml:"agent_id,omitempty"`
}

// Built-in agent names.
const (
	AgentDeveloper  = "developer_agent"
	AgentSearch     = "search_agent"
	AgentDocument   = "document_agent"
	AgentMultiModal = "multi_modal_agent"
)

// BuiltinAgentProfiles returns the four built-in agents. Callers get a
// fresh slice each call so a caller mutating one entry cannot corrupt
// the defaults for the next caller.
func BuiltinAgentProfiles() []AgentProfile {
	return []AgentProfile{
		{
			Name:         AgentDeveloper,
			Description:  "Writes and edits code, runs terminal commands.",
			SystemPrompt: "You are a software engineer. Use the available tools to read, write, and run code to complete the assigned sub-task.",
			Tools:        []string{"file_read", "file_write", "terminal_exec", "code_repo"},
		},
		{
			Name:         AgentSearch,
			Description:  "Searches the web and browses pages for information.",
			SystemPrompt: "You are a research assistant. Use search and browser tools to find accurate, well-sourced answers.",
			Tools:        []string{"search", "browser"},
		},
		{
			Name:         AgentDocument,
			Description:  "Produces documents, spreadsheets, and presentations.",
			SystemPrompt: "You are a document specialist. Produce the requested artifact using the file and document tools.",
			Tools:        []string{"file_read", "file_write", "doc_mutation"},
		},
		{
			Name:         AgentMultiModal,
			Description:  "Analyzes images, audio, and other media.",
			SystemPrompt: "You are a multi-modal analyst. Use the media tools to inspect attachments and report findings.",
			Tools:        []string{"media_analysis", "file_read"},
		},
	}
}

// MergeAgentProfiles merges custom specs into the built-ins by
// case-insensitive name, replacing a built-in with the same name or
// appending a genuinely new one.
func MergeAgentProfiles(builtins []AgentProfile, custom []AgentProfile) []AgentProfile {
	merged := make([]AgentProfile, len(builtins))
	copy(merged, builtins)

	index := make(map[string]int, len(merged))
	for i, p := range merged {
		index[strings.ToLower(p.Name)] = i
	}

	for _, c := range custom {
		key := strings.ToLower(c.Name)
		if i, ok := index[key]; ok {
			merged[i] = c
			continue
		}
		index[key] = len(merged)
		merged = append(merged, c)
	}
	return merged
}

// AgentRegistry stores agent profiles in memory with thread-safe access,
// following the defensive-copy registry idiom used throughout this
// engine's config layer.
type AgentRegistry struct {
	profiles map[string]AgentProfile
	order    []string
	mu       sync.RWMutex
}

// NewAgentRegistry builds a registry from an already-merged profile list.
func NewAgentRegistry(profiles []AgentProfile) *AgentRegistry {
	r := &AgentRegistry{profiles: make(map[string]AgentProfile, len(profiles))}
	for _, p := range profiles {
		key := strings.ToLower(p.Name)
		if _, exists := r.profiles[key]; !exists {
			r.order = append(r.order, key)
		}
		r.profiles[key] = p
	}
	return r
}

// Get retrieves an agent profile by case-insensitive name.
func (r *AgentRegistry) Get(name string) (AgentProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[strings.ToLower(name)]
	if !ok {
		return AgentProfile{}, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}
	return p, nil
}

// All returns all profiles in registration order.
func (r *AgentRegistry) All() []AgentProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AgentProfile, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.profiles[key])
	}
	return out
}
