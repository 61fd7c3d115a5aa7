package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/rajat1299/Cowork-sub000/pkg/events"
	"github.com/rajat1299/Cowork-sub000/pkg/queue"
)

// previewLimit is the fixed char budget every activate/deactivate
// preview is truncated to.
const previewLimit = 500

const truncatedMarker = "... [truncated]"

// ErrPermissionDenied is raised when the approval gate denies a call.
// It propagates through the wrapper to the caller.
var ErrPermissionDenied = errors.New("tool permission denied")

// ToolContext carries the per-call identity explicitly rather than
// through ambient/context-local storage: process_task_id, agent_name,
// auth_token, project_id, passed into every invocation.
type ToolContext struct {
	ProcessTaskID string
	AgentName     string
	AuthToken     string
	ProjectID     string
}

// ToolCall / ToolResult are the typed request/response the Invoker
// middleware wraps.
type ToolCall struct {
	ToolkitName string
	MethodName  string
	Args        map[string]any
}

type ToolResult struct {
	Content string
	IsError bool
}

// ToolFunc is the underlying tool call the middleware wraps.
type ToolFunc func(ctx context.Context, call ToolCall) (ToolResult, error)

// ArtifactDetector is the subset of artifacts.Detector the invoker needs:
// scanning a deactivate_toolkit message for filesystem paths it produced.
// Kept as an interface here (rather than importing pkg/artifacts) purely
// to avoid coupling this package to the detector's constructor signature.
type ArtifactDetector interface {
	Inspect(message string) []events.ArtifactEvent
}

// Invoker wraps every tool call: it emits activate_toolkit before the
// call and deactivate_toolkit after, running the approval gate in
// between for sensitive tiers. When Detector is set, artifact detection
// runs inline right after each deactivate_toolkit emission so produced
// artifact events are always delivered immediately after the event that
// caused them .
type Invoker struct {
	Gate      *ApprovalGate
	Publisher *events.Publisher
	Lock      *queue.ProjectLock
	Detector  ArtifactDetector
}

// Invoke runs one tool call through activation, approval, execution,
// and deactivation, in that order. activate_toolkit is always emitted,
// even when the approval gate denies the call, to keep an audit trail
// of every attempted invocation.
func (inv *Invoker) Invoke(ctx context.Context, tc ToolContext, call ToolCall, fn ToolFunc) (ToolResult, error) {
	argsPreview := truncate(fmt.Sprintf("%v", call.Args))
	inv.Publisher.ActivateToolkit(call.ToolkitName, call.MethodName, argsPreview)

	tier := ClassifyTier(call.ToolkitName, call.MethodName)
	if tier != TierNeverAsk {
		humanQuestion := fmt.Sprintf("Allow %s to call %s?", tc.AgentName, call.MethodName)
		approved, err := inv.Gate.RequestApproval(ctx, inv.Lock, inv.Publisher, tier,
			call.ToolkitName, call.MethodName, humanQuestion, argsPreview, tc.AgentName, tc.ProcessTaskID)
		if err != nil {
			inv.Publisher.DeactivateToolkit(call.ToolkitName, call.MethodName, truncate(err.Error()), true)
			return ToolResult{}, err
		}
		if !approved {
			inv.Publisher.DeactivateToolkit(call.ToolkitName, call.MethodName, "permission denied", true)
			return ToolResult{}, ErrPermissionDenied
		}
	}

	result, err := fn(ctx, call)
	if err != nil {
		inv.deactivate(call, truncate(err.Error()), true)
		return result, err
	}

	inv.deactivate(call, truncate(result.Content), result.IsError)
	return result, nil
}

// deactivate emits deactivate_toolkit and, if a Detector is wired, runs
// artifact detection against the same message and emits any resulting
// artifact events immediately afterward, in the same call stack — never
// from a reentrant listener — so ordering stays deterministic.
func (inv *Invoker) deactivate(call ToolCall, resultPreview string, isError bool) {
	inv.Publisher.DeactivateToolkit(call.ToolkitName, call.MethodName, resultPreview, isError)
	if inv.Detector == nil {
		return
	}
	for _, a := range inv.Detector.Inspect(resultPreview) {
		inv.Publisher.Artifact(a)
	}
}

func truncate(s string) string {
	if len(s) <= previewLimit {
		return s
	}
	return s[:previewLimit] + truncatedMarker
}
