package workforce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajat1299/Cowork-sub000/pkg/config"
)

func TestResolveToolsForTurn_SearchDisabledStripsSearchAndBrowser(t *testing.T) {
	roster := []config.AgentProfile{
		{Name: config.AgentSearch, Tools: []string{"search", "browser_navigate", "hybrid_browser_click"}},
	}
	plans := ResolveToolsForTurn(roster, false, false, false)
	require.Len(t, plans, 1)
	assert.Empty(t, plans[0].Tools)
}

func TestResolveToolsForTurn_NativeSearchKeepsBrowserStripsSearch(t *testing.T) {
	roster := []config.AgentProfile{
		{Name: config.AgentSearch, Tools: []string{"search", "browser_navigate"}},
	}
	plans := ResolveToolsForTurn(roster, true, true, false)
	require.Len(t, plans, 1)
	assert.Equal(t, []string{"browser_navigate"}, plans[0].Tools)
}

func TestResolveToolsForTurn_MemorySearchAppended(t *testing.T) {
	roster := []config.AgentProfile{{Name: config.AgentDeveloper, Tools: []string{"file_write"}}}
	plans := ResolveToolsForTurn(roster, true, false, true)
	assert.Equal(t, []string{"file_write", "memory_search"}, plans[0].Tools)
}

func TestAssignAgent_PrefersAssignedRole(t *testing.T) {
	roster := config.BuiltinAgentProfiles()
	agent := AssignAgent(roster, SubTask{Content: "irrelevant", AssignedRole: "document_agent"})
	assert.Equal(t, config.AgentDocument, agent.Name)
}

func TestAssignAgent_KeywordHeuristic(t *testing.T) {
	roster := config.BuiltinAgentProfiles()
	agent := AssignAgent(roster, SubTask{Content: "Research the latest benchmarks for this model"})
	assert.Equal(t, config.AgentSearch, agent.Name)
}

func TestAssignAgent_FallsBackToDeveloper(t *testing.T) {
	roster := config.BuiltinAgentProfiles()
	agent := AssignAgent(roster, SubTask{Content: "do the generic thing"})
	assert.Equal(t, config.AgentDeveloper, agent.Name)
}
