package skills

import (
	"strings"

	"github.com/rajat1299/Cowork-sub000/pkg/config"
)

// InjectPolicy appends each active skill's required_tools and prompt
// instructions onto the target agent — document_agent if present in the
// roster, else developer_agent  — idempotently:
// re-running injection on an already-injected roster is a no-op because
// each check skips content already present.
//
// ForceComplex is reported back so the run loop's classifier decision
// can be overridden regardless of what the classifier said (spec §4.6:
// "A skill can set force_complex=true to force the complex branch").
func InjectPolicy(roster []config.AgentProfile, activeSkills []*Pack) (out []config.AgentProfile, forceComplex bool) {
	out = make([]config.AgentProfile, len(roster))
	copy(out, roster)

	targetIdx := findTarget(out)
	if targetIdx == -1 {
		for _, p := range activeSkills {
			if p.ForceComplex {
				forceComplex = true
			}
		}
		return out, forceComplex
	}

	target := &out[targetIdx]
	for _, p := range activeSkills {
		if p.ForceComplex {
			forceComplex = true
		}
		for _, tool := range p.RequiredTools {
			if !containsTool(target.Tools, tool) {
				target.Tools = append(target.Tools, tool)
			}
		}
		for _, instruction := range p.PromptInstructions {
			if !strings.Contains(target.SystemPrompt, instruction) {
				target.SystemPrompt = target.SystemPrompt + "\n" + instruction
			}
		}
	}
	return out, forceComplex
}

func findTarget(roster []config.AgentProfile) int {
	docIdx, devIdx := -1, -1
	for i, a := range roster {
		switch strings.ToLower(a.Name) {
		case config.AgentDocument:
			docIdx = i
		case config.AgentDeveloper:
			devIdx = i
		}
	}
	if docIdx != -1 {
		return docIdx
	}
	return devIdx
}

func containsTool(tools []string, target string) bool {
	for _, t := range tools {
		if t == target {
			return true
		}
	}
	return false
}
