// Package skills implements the Skill Engine (spec §4.6): trigger
// detection, research query planning, prompt/tool policy injection,
// output-contract validation, and a bounded repair pass, driven by Skill
// Packs loaded from a directory of skill.toml configuration files.
package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/rajat1299/Cowork-sub000/pkg/config"
)

// OutputContract is the artifact requirement a skill's turn must
// satisfy.
type OutputContract struct {
	RequiredArtifact  bool     `toml:"required_artifact"`
	AllowedExtensions []string `toml:"allowed_extensions"`
	MinArtifacts      int      `toml:"min_artifacts"`
	Description       string   `toml:"description"`
}

// RetryPolicy bounds the repair pass for one skill.
type RetryPolicy struct {
	MaxRepairAttempts int `toml:"max_repair_attempts"`
}

// Pack is one loaded Skill Pack (spec §3).
type Pack struct {
	ID                string            `toml:"id" validate:"required"`
	Name              string            `toml:"name" validate:"required"`
	Version           string            `toml:"version"`
	Domains           []string          `toml:"domains"`
	TriggerPatterns   []string          `toml:"trigger_patterns"`
	TriggerExtensions []string          `toml:"trigger_extensions"`
	PromptInstructions []string         `toml:"prompt_instructions"`
	RequiredTools     []string          `toml:"required_tools"`
	OutputContract    OutputContract    `toml:"output_contract"`
	ValidationRules   []string          `toml:"validation_rules"`
	RetryPolicy       RetryPolicy       `toml:"retry_policy"`
	ForceComplex      bool              `toml:"force_complex"`

	compiledPatterns []*regexp.Regexp
	PolicyMarkdown   string
	Templates        map[string]string
}

// LoadPacks reads every "<root>/<id>/skill.toml" under root, compiling
// each pack's trigger patterns and reading its optional policy.md and
// templates/*.md, in directory-listing order (which is lexical, giving
// the "pack load order" spec §4.6 needs for deterministic trigger
// selection).
func LoadPacks(root string) ([]*Pack, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read skill pack root %s: %w", root, err)
	}

	var packs []*Pack
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		pack, err := loadOne(dir)
		if err != nil {
			return nil, fmt.Errorf("load skill pack %s: %w", entry.Name(), err)
		}
		if pack != nil {
			packs = append(packs, pack)
		}
	}
	return packs, nil
}

func loadOne(dir string) (*Pack, error) {
	tomlPath := filepath.Join(dir, "skill.toml")
	data, err := os.ReadFile(tomlPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p Pack
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", config.ErrSkillPackInvalid, tomlPath, err)
	}
	if p.ID == "" || p.Name == "" {
		return nil, fmt.Errorf("%w: %s missing id/name", config.ErrSkillPackInvalid, tomlPath)
	}

	for _, pat := range p.TriggerPatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("%w: %s bad trigger pattern %q: %v", config.ErrSkillPackInvalid, tomlPath, pat, err)
		}
		p.compiledPatterns = append(p.compiledPatterns, re)
	}

	if policy, err := os.ReadFile(filepath.Join(dir, "policy.md")); err == nil {
		p.PolicyMarkdown = string(policy)
	}

	p.Templates = make(map[string]string)
	templateFiles, _ := filepath.Glob(filepath.Join(dir, "templates", "*.md"))
	for _, tf := range templateFiles {
		data, err := os.ReadFile(tf)
		if err != nil {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(tf), filepath.Ext(tf))
		p.Templates[name] = string(data)
	}

	return &p, nil
}
