package workforce

import (
	"strings"

	"github.com/rajat1299/Cowork-sub000/pkg/config"
)

// searchTools / browserTools are the closed sets stripped or kept per
// spec §4.4 Phase B step 2 and the §8 invariant on search_enabled=false.
var searchTools = map[string]bool{"search": true}

func isBrowserTool(tool string) bool {
	return strings.HasPrefix(tool, "browser") || strings.HasPrefix(tool, "hybrid_browser")
}

// ToolPlan is the resolved tool list for one agent in one turn, after
// search/native-search stripping and skill-pack augmentation.
type ToolPlan struct {
	Agent config.AgentProfile
	Tools []string
}

// ResolveToolsForTurn computes the effective tool list for every agent in
// roster:
//   - searchEnabled=false strips search and every browser* tool (spec §8
//     invariant: "no agent's tool list contains any of
//     {search, browser, hybrid_browser*}").
//   - nativeSearchEnabled strips the search tool but keeps browser tools,
//     since native search replaces the search tool call but an agent may
//     still need to browse a result.
//   - memorySearchEnabled appends "memory_search" to every agent that
//     doesn't already carry it.
func ResolveToolsForTurn(roster []config.AgentProfile, searchEnabled, nativeSearchEnabled, memorySearchEnabled bool) []ToolPlan {
	plans := make([]ToolPlan, 0, len(roster))
	for _, agent := range roster {
		var tools []string
		for _, t := range agent.Tools {
			if !searchEnabled && (searchTools[t] || isBrowserTool(t)) {
				continue
			}
			if searchEnabled && nativeSearchEnabled && searchTools[t] {
				continue
			}
			tools = append(tools, t)
		}
		if memorySearchEnabled && !contains(tools, "memory_search") {
			tools = append(tools, "memory_search")
		}
		plans = append(plans, ToolPlan{Agent: agent, Tools: tools})
	}
	return plans
}

func contains(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}

// roleKeywords is the heuristic keyword table used to assign a sub-task
// that carries no assigned_role, matched against the sub-task content
// (case-insensitive substring match) .
var roleKeywords = map[string][]string{
	config.AgentSearch:     {"search", "research", "find", "look up", "investigate"},
	config.AgentDocument:   {"document", "spreadsheet", "report", "presentation", "write up", ".xlsx", ".docx", ".pdf", ".md"},
	config.AgentMultiModal: {"image", "audio", "video", "photo", "media", "screenshot", "diagram"},
	config.AgentDeveloper:  {"code", "implement", "bug", "script", "function", "api", "test", "refactor", "build"},
}

// AssignAgent picks an assignee for a sub-task: the explicit
// assigned_role if it names a roster member, else the roster member with
// the most keyword hits over content (the earlier one on a tie), else
// the developer agent, else the first roster member.
func AssignAgent(roster []config.AgentProfile, sub SubTask) config.AgentProfile {
	if sub.AssignedRole != "" {
		for _, a := range roster {
			if strings.EqualFold(a.Name, sub.AssignedRole) {
				return a
			}
		}
	}

	content := strings.ToLower(sub.Content)
	best, bestHits := -1, 0
	for i, a := range roster {
		hits := 0
		for _, kw := range roleKeywords[strings.ToLower(a.Name)] {
			if strings.Contains(content, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = i, hits
		}
	}
	if best >= 0 {
		return roster[best]
	}

	for _, a := range roster {
		if strings.EqualFold(a.Name, config.AgentDeveloper) {
			return a
		}
	}
	if len(roster) > 0 {
		return roster[0]
	}
	return config.AgentProfile{Name: config.AgentDeveloper}
}
