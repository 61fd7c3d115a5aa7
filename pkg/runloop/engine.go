// Package runloop implements the Run Loop (spec §4.2): the per-project
// coroutine that drives one turn at a time through classification,
// single-shot streaming, or the complex workforce branch, and always
// terminates with exactly one end event.
package runloop

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rajat1299/Cowork-sub000/pkg/artifacts"
	"github.com/rajat1299/Cowork-sub000/pkg/config"
	"github.com/rajat1299/Cowork-sub000/pkg/core"
	"github.com/rajat1299/Cowork-sub000/pkg/events"
	"github.com/rajat1299/Cowork-sub000/pkg/llm"
	"github.com/rajat1299/Cowork-sub000/pkg/memory"
	"github.com/rajat1299/Cowork-sub000/pkg/queue"
	"github.com/rajat1299/Cowork-sub000/pkg/skills"
	"github.com/rajat1299/Cowork-sub000/pkg/tools"
	"github.com/rajat1299/Cowork-sub000/pkg/workforce"
)

// Engine owns every shared, read-only collaborator the run loop needs:
// the project queue manager, configured rosters, the Core client, and
// the skill pack set. One Engine serves every project; state specific to
// a project lives on its queue.ProjectLock.
type Engine struct {
	Manager          *queue.Manager
	Agents           *config.AgentRegistry
	Providers        *config.ProviderRegistry
	Core             *core.Client
	Memory           *memory.Builder
	ApprovalGate     *tools.ApprovalGate
	SkillPacks       []*skills.Pack
	System           config.System
	Logger           *slog.Logger

	regOnce  sync.Once
	regState *registry
}

// workforceGracefulTimeout is a 3-second bound for in-flight workforce
// work after a Stop. No code path reads it: watchStop cancels the turn
// context, and with it any running workforce, as soon as it observes
// stop_requested.
const workforceGracefulTimeout = 3 * time.Second

// RunProject drives the run loop for one project's lock until ctx is
// cancelled. It is meant to run as its own goroutine, one per live
// project_id, started the first time an Action arrives for that project.
func (e *Engine) RunProject(ctx context.Context, lock *queue.ProjectLock) {
	done := ctx.Done()
	for {
		action, ok := lock.Get(done)
		if !ok {
			return
		}
		switch {
		case action.Improve != nil:
			lock.ResetStopRequested()
			lock.SetStatus(queue.StatusConfirming)
			e.runTurn(ctx, lock, action.Improve)
			lock.SetStatus(queue.StatusDone)
		case action.Stop != nil:
			// Stop arriving with no turn in flight: nothing to cancel, but
			// the status still reflects the request was serviced.
			lock.SetStatus(queue.StatusStopped)
		}
	}
}

// runTurn is the full turn procedure from spec §4.2.
func (e *Engine) runTurn(parent context.Context, lock *queue.ProjectLock, action *queue.ImproveAction) {
	turnCtx, cancel := context.WithCancel(parent)
	defer cancel()
	go e.watchStop(turnCtx, lock, cancel)

	stream := events.NewEventStream(action.TaskID, 128, e.Logger)
	pub := events.NewPublisher(stream)
	lock.SetCurrentTaskID(action.TaskID)
	e.publishStream(action.TaskID, stream)

	defer stream.Close()

	pub.Confirmed(action.Question)
	pub.TaskState("processing")
	lock.SetStatus(queue.StatusProcessing)

	provider, dialect, err := e.resolveProvider(turnCtx, action)
	if err != nil {
		pub.Error("No provider configured")
		pub.End("error", nil)
		return
	}

	memCtx := e.Memory.Hydrate(turnCtx, action.AuthToken, action.ProjectID, action.TaskID, "")

	historyID, _ := e.Core.CreateHistory(turnCtx, action.AuthToken, core.HistoryCreateRequest{
		ProjectID: action.ProjectID, TaskID: action.TaskID, Question: action.Question,
	})

	workdir := projectWorkdir(e.System.Workdir, action.ProjectID)
	detector := artifacts.New(action.TaskID, action.ProjectID, workdir)
	skillState := skills.NewRunState(action.TaskID, action.ProjectID, action.Question)
	skillEngine := &skills.Engine{Packs: e.SkillPacks, Mode: skills.ParseMode(e.System.SkillsMode), WorkdirRoot: workdir, Core: e.Core, Logger: e.Logger}
	stream.SetListener(skillEngine.Listener(skillState))

	messages := buildMessages(memCtx, lock.Conversation(), action.Question)

	complex, classifyErr := e.classify(turnCtx, dialect, provider, action.Question, pub)
	if classifyErr != nil {
		pub.Error(classifyErr.Error())
		pub.End("error", nil)
		e.failHistory(turnCtx, action.AuthToken, historyID)
		return
	}

	roster := e.resolveRoster(action)
	_, forceComplex := skillEngine.Prepare(skillState, roster, action.Attachments)
	if forceComplex {
		complex = true
	}

	lock.AppendConversation(queue.ConversationTurn{Role: "user", Content: action.Question})

	if lock.StopRequested() {
		pub.TurnCancelled("user_stop")
		pub.End("stopped", map[string]any{"reason": "user_stop"})
		e.cancelHistory(turnCtx, action.AuthToken, historyID)
		return
	}

	if !complex {
		e.runSimple(turnCtx, lock, pub, dialect, provider, messages, action.AuthToken, historyID)
		return
	}

	e.runComplex(turnCtx, lock, pub, dialect, provider, action, skillEngine, skillState, roster, workdir, detector, historyID)
}

// watchStop polls stop_requested and cancels turnCtx as soon as it
// flips, giving every suspension point in this turn a single
// cancellation signal to select on (spec §5).
func (e *Engine) watchStop(ctx context.Context, lock *queue.ProjectLock, cancel context.CancelFunc) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if lock.StopRequested() {
				lock.StopWorkforceIfActive()
				cancel()
				return
			}
		}
	}
}

func (e *Engine) resolveProvider(ctx context.Context, action *queue.ImproveAction) (llm.ProviderConfig, llm.Dialect, error) {
	var cfg llm.ProviderConfig
	if action.ProviderOverride.Complete() {
		cfg = llm.ProviderConfig{
			ProviderName: action.ProviderOverride.ProviderName,
			Model:        action.ProviderOverride.ModelType,
			APIKey:       action.ProviderOverride.APIKey,
			EndpointURL:  action.ProviderOverride.EndpointURL,
			ExtraParams:  action.ProviderOverride.ExtraParams,
		}
	} else {
		preferred, err := e.Core.PreferredProvider(ctx, action.AuthToken)
		if err != nil || preferred == nil {
			return llm.ProviderConfig{}, nil, fmt.Errorf("no preferred provider available: %w", err)
		}
		cfg = llm.ProviderConfig{
			ProviderName: preferred.ProviderName,
			Model:        preferred.ModelType,
			APIKey:       preferred.APIKey,
			EndpointURL:  preferred.EndpointURL,
			ExtraParams:  preferred.ExtraParams,
		}
	}

	canonical := llm.NormalizeProviderName(cfg.ProviderName)
	if cfg.EndpointURL == "" {
		cfg.EndpointURL = config.DefaultEndpoint(canonical)
	}
	if cfg.EndpointURL == "" && llm.RequiresExplicitEndpoint(canonical) {
		return llm.ProviderConfig{}, nil, fmt.Errorf("provider %q requires an explicit endpoint", cfg.ProviderName)
	}

	dialect, err := llm.DialectFor(canonical, cfg.ExtraParams)
	if err != nil {
		return llm.ProviderConfig{}, nil, err
	}
	return cfg, dialect, nil
}

// classify asks the yes/no complexity question and parses the reply by
// its leading letters: anything not starting with "no" is complex. A
// reply that starts with neither "yes" nor "no" is still treated as
// complex, but emits a notice so the ambiguity is observable
// .
func (e *Engine) classify(ctx context.Context, dialect llm.Dialect, provider llm.ProviderConfig, question string, pub *events.Publisher) (bool, error) {
	chunks, err := dialect.Stream(ctx, provider, llm.GenerateInput{
		Model: provider.Model,
		Messages: []llm.ConversationMessage{
			{Role: llm.RoleUser, Content: "Does completing this request require decomposing it into multiple sub-tasks handled by different specialists? Answer with a single leading word, yes or no.\n\nRequest: " + question},
		},
		Temperature: 0,
	})
	if err != nil {
		return false, err
	}

	var sb strings.Builder
	for c := range chunks {
		switch v := c.(type) {
		case llm.TextChunk:
			sb.WriteString(v.Text)
		case llm.ErrorChunk:
			return false, v.Err
		}
	}

	reply := strings.ToLower(strings.TrimSpace(sb.String()))
	if strings.HasPrefix(reply, "no") {
		return false, nil
	}
	if !strings.HasPrefix(reply, "yes") {
		pub.Notice("classification_uncertain")
	}
	return true, nil
}

func (e *Engine) resolveRoster(action *queue.ImproveAction) []config.AgentProfile {
	builtins := config.BuiltinAgentProfiles()
	custom := make([]config.AgentProfile, 0, len(action.CustomAgents))
	for _, c := range action.CustomAgents {
		custom = append(custom, config.AgentProfile{
			Name: c.Name, Description: c.Description, SystemPrompt: c.SystemPrompt, Tools: c.Tools,
		})
	}
	merged := config.MergeAgentProfiles(builtins, custom)
	if e.Agents != nil {
		merged = config.MergeAgentProfiles(merged, e.Agents.All())
	}
	return merged
}

func (e *Engine) failHistory(ctx context.Context, token, historyID string) {
	if historyID == "" {
		return
	}
	if err := e.Core.UpdateHistory(ctx, token, historyID, core.HistoryUpdateRequest{Status: "ERROR"}); err != nil {
		e.Logger.Warn("history update failed", "history_id", historyID, "error", err)
	}
}

func (e *Engine) cancelHistory(ctx context.Context, token, historyID string) {
	if historyID == "" {
		return
	}
	if err := e.Core.UpdateHistory(ctx, token, historyID, core.HistoryUpdateRequest{Status: "CANCELLED"}); err != nil {
		e.Logger.Warn("history update failed", "history_id", historyID, "error", err)
	}
}

func buildMessages(memCtx memory.Context, conversation []queue.ConversationTurn, question string) []llm.ConversationMessage {
	var msgs []llm.ConversationMessage
	if memCtx.ThreadSummary != "" {
		msgs = append(msgs, llm.ConversationMessage{Role: llm.RoleSystem, Content: "Conversation summary: " + memCtx.ThreadSummary})
	}
	if memCtx.TaskSummary != "" {
		msgs = append(msgs, llm.ConversationMessage{Role: llm.RoleSystem, Content: "Prior task summary: " + memCtx.TaskSummary})
	}
	if len(memCtx.ProjectNotes) > 0 {
		msgs = append(msgs, llm.ConversationMessage{Role: llm.RoleSystem, Content: "Project notes:\n" + joinNotes(memCtx.ProjectNotes)})
	}
	if len(memCtx.GlobalNotes) > 0 {
		msgs = append(msgs, llm.ConversationMessage{Role: llm.RoleSystem, Content: "User notes:\n" + joinNotes(memCtx.GlobalNotes)})
	}
	for _, turn := range conversation {
		msgs = append(msgs, llm.ConversationMessage{Role: llm.Role(turn.Role), Content: turn.Content})
	}
	msgs = append(msgs, llm.ConversationMessage{Role: llm.RoleUser, Content: question})
	return msgs
}

func joinNotes(notes []core.Note) string {
	var sb strings.Builder
	for i, n := range notes {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(n.Text)
	}
	return sb.String()
}

func projectWorkdir(root, projectID string) string {
	return root + "/" + sanitizeProjectID(projectID)
}

func sanitizeProjectID(projectID string) string {
	var b strings.Builder
	for _, r := range projectID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// newRequestID returns a fresh random UUID string for use as a
// correlation id.
func newRequestID() string { return uuid.NewString() }
