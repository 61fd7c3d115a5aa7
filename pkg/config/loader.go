package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// agentsFile / providersFile are the on-disk YAML documents loaded from
// the config directory at startup, mirroring the teacher's
// config.Initialize(ctx, configDir) entrypoint.
type agentsFile struct {
	Agents []AgentProfile `yaml:"agents"`
}

type providersFile struct {
	Providers []ProviderConfig `yaml:"providers"`
}

// LoadAgentProfiles reads <configDir>/agents.yaml (if present), expands
// env references in every string field that might carry one, validates
// each profile, and merges the result over the four built-ins.
func LoadAgentProfiles(configDir string) ([]AgentProfile, error) {
	path := filepath.Join(configDir, "agents.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return BuiltinAgentProfiles(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	expanded := ExpandEnv(string(data))
	var doc agentsFile
	if err := yaml.Unmarshal([]byte(expanded), &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, p := range doc.Agents {
		if err := Validate(p); err != nil {
			return nil, fmt.Errorf("agent profile %d (%s): %w", i, p.Name, err)
		}
	}

	return MergeAgentProfiles(BuiltinAgentProfiles(), doc.Agents), nil
}

// LoadProviderConfigs reads <configDir>/providers.yaml, expanding env
// references (this is how api_key typically flows in as ${OPENAI_API_KEY}
// rather than being committed to the file) and validating each entry.
// A missing file yields an empty registry, not an error — the run loop
// falls back to Core-fetched provider config in that case.
func LoadProviderConfigs(configDir string) ([]ProviderConfig, error) {
	path := filepath.Join(configDir, "providers.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	expanded := ExpandEnv(string(data))
	var doc providersFile
	if err := yaml.Unmarshal([]byte(expanded), &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, p := range doc.Providers {
		if err := Validate(p); err != nil {
			return nil, fmt.Errorf("provider config %d (%s): %w", i, p.ID, err)
		}
	}
	return doc.Providers, nil
}
