// Package events defines the typed step-event log emitted by a turn's run
// loop and fanned out over SSE to the client that opened the turn.
package events

import "time"

// StepKind is the closed set of step events a turn can emit.
type StepKind string

const (
	StepConfirmed         StepKind = "confirmed"
	StepStreaming         StepKind = "streaming"
	StepDecomposeText     StepKind = "decompose_text"
	StepToSubTasks        StepKind = "to_sub_tasks"
	StepAssignTask        StepKind = "assign_task"
	StepTaskState         StepKind = "task_state"
	StepCreateAgent       StepKind = "create_agent"
	StepActivateAgent     StepKind = "activate_agent"
	StepDeactivateAgent   StepKind = "deactivate_agent"
	StepActivateToolkit   StepKind = "activate_toolkit"
	StepDeactivateToolkit StepKind = "deactivate_toolkit"
	StepArtifact          StepKind = "artifact"
	StepAskUser           StepKind = "ask_user"
	StepNotice            StepKind = "notice"
	StepError             StepKind = "error"
	StepTurnCancelled     StepKind = "turn_cancelled"
	StepEnd               StepKind = "end"
	StepContextTooLong    StepKind = "context_too_long"
)

// StepEvent is the wire-level record for one emitted step. It is
// marshaled verbatim into the SSE `data:` line.
type StepEvent struct {
	TaskID    string    `json:"task_id"`
	Step      StepKind  `json:"step"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// ArtifactEvent describes a file produced during a turn that the user
// should be able to download.
type ArtifactEvent struct {
	TaskID     string    `json:"task_id"`
	Artifact   string    `json:"artifact_type"`
	Name       string    `json:"name"`
	ContentURL string    `json:"content_url,omitempty"`
	Action     string    `json:"action,omitempty"` // "created" | "modified"
	CreatedAt  time.Time `json:"created_at"`
}
