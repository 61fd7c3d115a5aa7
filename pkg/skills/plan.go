package skills

import "strings"

// researchSuffixes are appended to the base question to produce
// candidate search queries for research-flavored skills .
var researchSuffixes = []string{
	"abstract methodology key findings",
	"latest updates",
	"benchmarks",
}

// isResearchSkill treats any pack whose domains mention "research" (case
// -insensitive) as research-flavored.
func isResearchSkill(p *Pack) bool {
	for _, d := range p.Domains {
		if strings.EqualFold(d, "research") {
			return true
		}
	}
	return false
}

// BuildQueryPlan expands question into 2-4 deduped (case-insensitive)
// query candidates for every active research skill, stored in
// run_state.query_plan .
func BuildQueryPlan(question string, activeSkills []*Pack) []string {
	hasResearch := false
	for _, p := range activeSkills {
		if isResearchSkill(p) {
			hasResearch = true
			break
		}
	}
	if !hasResearch {
		return nil
	}

	candidates := []string{question}
	for _, suffix := range researchSuffixes {
		candidates = append(candidates, question+" "+suffix)
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		key := strings.ToLower(strings.TrimSpace(c))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
		if len(out) == 4 {
			break
		}
	}
	return out
}
