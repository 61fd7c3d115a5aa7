package workforce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecomposition_FencedJSONWithTrailingComma(t *testing.T) {
	text := "Here is the plan:\n```json\n[{\"id\":\"1\",\"content\":\"Write the backend\",},{\"id\":\"2\",\"content\":\"Write the frontend\",\"assigned_role\":\"developer_agent\"},]\n```\n"
	subs := ParseDecomposition(text)
	require.Len(t, subs, 2)
	assert.Equal(t, "1", subs[0].ID)
	assert.Equal(t, "Write the frontend", subs[1].Content)
	assert.Equal(t, "developer_agent", subs[1].AssignedRole)
}

func TestParseDecomposition_BareJSONArray(t *testing.T) {
	subs := ParseDecomposition(`[{"id":"a","content":"do x"}]`)
	require.Len(t, subs, 1)
	assert.Equal(t, "do x", subs[0].Content)
}

func TestParseDecomposition_DedupesByID(t *testing.T) {
	subs := ParseDecomposition(`[{"id":"1","content":"first"},{"id":"1","content":"second"}]`)
	require.Len(t, subs, 1)
	assert.Equal(t, "first", subs[0].Content)
}

func TestParseDecomposition_BulletFallback(t *testing.T) {
	text := "Plan:\n- Research the topic\n* Draft the report\n1) Review and ship\nno\n"
	subs := ParseDecomposition(text)
	require.Len(t, subs, 3)
	assert.Equal(t, "Research the topic", subs[0].Content)
	assert.Equal(t, "Review and ship", subs[2].Content)
}

func TestParseDecomposition_FinalFallback(t *testing.T) {
	subs := ParseDecomposition("no structure here at all, just prose.")
	require.Len(t, subs, 1)
	assert.Equal(t, "Complete the task end-to-end.", subs[0].Content)
}

func TestSplitTitleSummary(t *testing.T) {
	title, summary := SplitTitleSummary("Build a CLI | Adds a new flag and wires it through")
	assert.Equal(t, "Build a CLI", title)
	assert.Equal(t, "Adds a new flag and wires it through", summary)
}

func TestSplitTitleSummary_NoPipe(t *testing.T) {
	title, summary := SplitTitleSummary("Just a title")
	assert.Equal(t, "Just a title", title)
	assert.Equal(t, "", summary)
}
