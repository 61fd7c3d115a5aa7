package skills

import "github.com/rajat1299/Cowork-sub000/pkg/events"

// RunState is the per-turn Runtime Skill State (spec §3).
type RunState struct {
	TaskID           string
	ProjectID        string
	Question         string
	ActiveSkills     []*Pack
	ExplicitFilenames map[string]bool
	QueryPlan        []string
	ToolEvents       []events.StepEvent
	Artifacts        []events.ArtifactEvent
	transcript       []string
}

// NewRunState seeds a RunState for one turn.
func NewRunState(taskID, projectID, question string) *RunState {
	return &RunState{
		TaskID:            taskID,
		ProjectID:         projectID,
		Question:          question,
		ExplicitFilenames: ExplicitFilenames(question),
	}
}

// Transcript joins every observed streaming/decompose_text chunk into
// one buffer, used by the missing-markdown repair to synthesize a
// document .
func (s *RunState) Transcript() string {
	joined := ""
	for _, c := range s.transcript {
		joined += c
	}
	return joined
}
