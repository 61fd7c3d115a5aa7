package runloop

import (
	"context"
	"errors"

	"github.com/rajat1299/Cowork-sub000/pkg/artifacts"
	"github.com/rajat1299/Cowork-sub000/pkg/config"
	"github.com/rajat1299/Cowork-sub000/pkg/core"
	"github.com/rajat1299/Cowork-sub000/pkg/events"
	"github.com/rajat1299/Cowork-sub000/pkg/llm"
	"github.com/rajat1299/Cowork-sub000/pkg/queue"
	"github.com/rajat1299/Cowork-sub000/pkg/skills"
	"github.com/rajat1299/Cowork-sub000/pkg/tools"
	"github.com/rajat1299/Cowork-sub000/pkg/workforce"
)

// runComplex is the workforce branch (spec §4.2 step 8, §4.4): decompose
// the question into sub-tasks, assign and run each under bounded
// concurrency, validate/repair any skill output contract, and terminate
// with exactly one end event.
func (e *Engine) runComplex(
	ctx context.Context,
	lock *queue.ProjectLock,
	pub *events.Publisher,
	dialect llm.Dialect,
	provider llm.ProviderConfig,
	action *queue.ImproveAction,
	skillEngine *skills.Engine,
	skillState *skills.RunState,
	roster []config.AgentProfile,
	workdir string,
	detector *artifacts.Detector,
	historyID string,
) {
	invoker := &tools.Invoker{
		Gate:      e.ApprovalGate,
		Publisher: pub,
		Lock:      lock,
		Detector:  detector,
	}

	scheduler := &workforce.Scheduler{
		Dialect:   dialect,
		Provider:  provider,
		Publisher: pub,
		Runner:    &workforce.LLMRunner{Dialect: dialect, Provider: provider, Invoker: invoker, WorkdirRoot: workdir},
		Lock:      lock,
		Logger:    e.Logger,
	}

	workforceCtx, cancelWorkforce := context.WithCancel(ctx)
	lock.SetWorkforceCancel(cancelWorkforce)
	defer func() {
		lock.SetWorkforceCancel(nil)
		cancelWorkforce()
	}()

	tree, _, err := scheduler.Plan(workforceCtx, action.Question)
	if err != nil {
		e.endComplexWithError(ctx, pub, action, historyID, err)
		return
	}

	searchEnabled := true
	if action.SearchEnabled != nil {
		searchEnabled = *action.SearchEnabled
	}
	nativeSearch := searchEnabled && hasWebSearchTool(provider.ExtraParams)
	plans := workforce.ResolveToolsForTurn(roster, searchEnabled, nativeSearch, e.System.MemorySearchPastChats)

	tc := tools.ToolContext{
		ProcessTaskID: action.TaskID,
		AgentName:     "workforce",
		AuthToken:     action.AuthToken,
		ProjectID:     action.ProjectID,
	}

	summary, err := scheduler.RunChildren(workforceCtx, tree, plans, tc)
	if lock.StopRequested() {
		pub.TurnCancelled("user_stop")
		pub.End("stopped", map[string]any{"reason": "user_stop"})
		e.cancelHistory(ctx, action.AuthToken, historyID)
		return
	}
	if err != nil {
		e.endComplexWithError(ctx, pub, action, historyID, err)
		return
	}

	result, repaired := skillEngine.ValidateAndRepair(skillState, workdir)
	for _, a := range repaired {
		pub.Artifact(a)
		if a.Action == "created" {
			if perr := e.Core.PersistArtifact(ctx, action.AuthToken, a); perr != nil {
				e.Logger.Warn("artifact persist failed", "task_id", action.TaskID, "error", perr)
			}
		}
	}
	if !result.Passed() && len(skillState.ActiveSkills) > 0 {
		pub.Error("skill output contract validation failed")
		pub.End("error", map[string]any{"reason": "Skill output contract validation failed"})
		e.failHistory(ctx, action.AuthToken, historyID)
		return
	}

	pub.End(summary, nil)
	lock.AppendConversation(queue.ConversationTurn{Role: "assistant", Content: summary})
	if historyID != "" {
		if uerr := e.Core.UpdateHistory(ctx, action.AuthToken, historyID, core.HistoryUpdateRequest{
			Status: "DONE", Result: summary,
		}); uerr != nil {
			e.Logger.Warn("history update failed", "history_id", historyID, "error", uerr)
		}
	}
}

func (e *Engine) endComplexWithError(ctx context.Context, pub *events.Publisher, action *queue.ImproveAction, historyID string, err error) {
	reason := "Decomposition failed"
	if !errors.Is(err, workforce.ErrDecompositionEmpty) {
		reason = err.Error()
	}
	pub.Error(reason)
	pub.End("error", map[string]any{"reason": reason})
	e.failHistory(ctx, action.AuthToken, historyID)
}

// hasWebSearchTool mirrors llm's own unexported web_search detection
// (dialect.go's usesWebSearch) for the search/native-search distinction
// workforce.ResolveToolsForTurn needs.
func hasWebSearchTool(extraParams map[string]any) bool {
	rawTools, ok := extraParams["tools"].([]any)
	if !ok {
		return false
	}
	for _, t := range rawTools {
		if m, ok := t.(map[string]any); ok {
			if m["type"] == "web_search" || m["name"] == "web_search" {
				return true
			}
		}
	}
	return false
}
