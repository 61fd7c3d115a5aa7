package workforce

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rajat1299/Cowork-sub000/pkg/config"
	"github.com/rajat1299/Cowork-sub000/pkg/events"
	"github.com/rajat1299/Cowork-sub000/pkg/llm"
	"github.com/rajat1299/Cowork-sub000/pkg/queue"
	"github.com/rajat1299/Cowork-sub000/pkg/tools"
)

// maxParallelWorkers bounds how many sub-tasks the workforce runs
// concurrently within a turn (spec §5: "within a turn, the workforce may
// fan out to multiple parallel agent tasks").
const maxParallelWorkers = 4

// Scheduler drives the complex-branch pipeline: decompose → assign →
// run → summarize (spec §4.4). One Scheduler is created per turn.
type Scheduler struct {
	Dialect   llm.Dialect
	Provider  llm.ProviderConfig
	Publisher *events.Publisher
	Runner    Runner
	Lock      *queue.ProjectLock
	Logger    *slog.Logger
}

// Plan runs Phase A: stream the decomposition prompt (emitting each
// chunk as decompose_text), parse the resulting sub-tasks, then request
// a "Title|Summary" completion and emit to_sub_tasks.
func (s *Scheduler) Plan(ctx context.Context, question string) (*Tree, string, error) {
	decompText, err := s.streamCompletion(ctx, decompositionPrompt(question), s.Publisher.DecomposeText)
	if err != nil {
		return nil, "", fmt.Errorf("decomposition request: %w", err)
	}

	subs := ParseDecomposition(decompText)
	if len(subs) == 0 {
		return nil, "", ErrDecompositionEmpty
	}

	titleSummaryText, err := s.streamCompletion(ctx, titleSummaryPrompt(question, decompText), nil)
	var title, summary string
	if err == nil {
		title, summary = SplitTitleSummary(titleSummaryText)
	} else {
		s.Logger.Warn("title/summary completion failed, continuing without it", "error", err)
	}

	tree := NewTree("root", question)
	for _, sub := range subs {
		tree.AddChild(tree.Root, TaskNode{
			ID:           sub.ID,
			Content:      sub.Content,
			State:        TaskOpen,
			AssignedRole: sub.AssignedRole,
		})
	}

	deltaSubTasks := make([]map[string]any, 0, len(subs))
	for _, sub := range subs {
		deltaSubTasks = append(deltaSubTasks, map[string]any{
			"id": sub.ID, "content": sub.Content, "assigned_role": sub.AssignedRole,
		})
	}
	s.Publisher.ToSubTasks(deltaSubTasks, deltaSubTasks, true, title)

	return tree, summary, nil
}

// RunChildren runs Phase C: assign each child of the tree's root to a
// roster member and execute them, honoring bounded concurrency and
// graceful stop. It returns the final summary text.
func (s *Scheduler) RunChildren(ctx context.Context, tree *Tree, plans []ToolPlan, tc tools.ToolContext) (string, error) {
	children := tree.Children(tree.Root)
	if len(children) == 0 {
		return "", ErrDecompositionEmpty
	}

	roster := make([]config.AgentProfile, 0, len(plans))
	toolsByAgent := make(map[string][]string, len(plans))
	for _, p := range plans {
		roster = append(roster, p.Agent)
		toolsByAgent[strings.ToLower(p.Agent.Name)] = p.Tools
	}

	sem := make(chan struct{}, maxParallelWorkers)
	var wg sync.WaitGroup
	for _, child := range children {
		if s.Lock.StopRequested() {
			s.Publisher.TaskState(string(TaskOpen))
			continue
		}
		agent := AssignAgent(roster, SubTask{ID: child.ID, Content: child.Content, AssignedRole: child.AssignedRole})
		agentID := uuid.NewString()

		s.Publisher.AssignTask(agentID, child.ID, child.Content, "waiting")

		wg.Add(1)
		sem <- struct{}{}
		go func(node *TaskNode) {
			defer wg.Done()
			defer func() { <-sem }()
			s.runOne(ctx, agentID, agent, toolsByAgent[strings.ToLower(agent.Name)], tc, node)
		}(child)
	}
	wg.Wait()

	return s.summarize(ctx, tree)
}

// runOne executes a single assigned sub-task, including the retry-once
// failure policy: on first failure the sub-task is retried exactly once
// before being marked FAILED .
func (s *Scheduler) runOne(ctx context.Context, agentID string, agent config.AgentProfile, toolList []string, tc tools.ToolContext, node *TaskNode) {
	s.Publisher.AssignTask(agentID, node.ID, node.Content, "running")
	s.Publisher.CreateAgent(agentID, agent.Name)
	s.Publisher.ActivateAgent(agentID, node.ID)
	node.State = TaskRunning
	s.Publisher.TaskState(string(TaskRunning))

	result, tokens, err := s.Runner.RunSubTask(ctx, agent, toolList, tc, node)
	if err != nil {
		node.FailureCount++
		s.Logger.Warn("sub-task failed, retrying once", "task_id", node.ID, "agent", agent.Name, "error", err)
		result, tokens, err = s.Runner.RunSubTask(ctx, agent, toolList, tc, node)
	}

	if err != nil {
		node.FailureCount++
		node.State = TaskFailed
		s.Publisher.DeactivateAgent(agentID, err.Error(), tokens)
		s.Publisher.TaskState(string(TaskFailed))
		return
	}

	node.Result = result
	node.State = TaskDone
	s.Publisher.DeactivateAgent(agentID, result, tokens)
	s.Publisher.TaskState(string(TaskDone))
}

// summarize produces the final turn summary: the lone child's result
// directly if there was only one sub-task, else a streamed summary
// completion over every child's result .
func (s *Scheduler) summarize(ctx context.Context, tree *Tree) (string, error) {
	children := tree.Children(tree.Root)
	if len(children) == 1 {
		return children[0].Result, nil
	}

	var sb strings.Builder
	for _, c := range children {
		status := string(c.State)
		sb.WriteString(fmt.Sprintf("- [%s] %s: %s\n", status, c.Content, c.Result))
	}

	summary, err := s.streamCompletion(ctx, finalSummaryPrompt(tree.Nodes[tree.Root].Content, sb.String()), s.Publisher.Streaming)
	if err != nil {
		return sb.String(), fmt.Errorf("final summary request: %w", err)
	}
	return summary, nil
}

// streamCompletion streams a single completion, invoking emit (if
// non-nil) per chunk, and returns the accumulated text.
func (s *Scheduler) streamCompletion(ctx context.Context, prompt string, emit func(string)) (string, error) {
	chunks, err := s.Dialect.Stream(ctx, s.Provider, llm.GenerateInput{
		Model:       s.Provider.Model,
		Messages:    []llm.ConversationMessage{{Role: llm.RoleUser, Content: prompt}},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for c := range chunks {
		switch v := c.(type) {
		case llm.TextChunk:
			sb.WriteString(v.Text)
			if emit != nil {
				emit(v.Text)
			}
		case llm.ErrorChunk:
			return sb.String(), v.Err
		}
	}
	return sb.String(), nil
}

func decompositionPrompt(question string) string {
	return "Break the following request into a JSON array of sub-tasks, each " +
		`{"id": "...", "content": "...", "assigned_role": "..."}. ` +
		"Request: " + question
}

func titleSummaryPrompt(question, decomposition string) string {
	return "Given the request and its decomposition, respond with exactly " +
		`"Title|Summary" (a short title, then a one-sentence summary). ` +
		"Request: " + question + "\nDecomposition: " + decomposition
}

func finalSummaryPrompt(question, childResults string) string {
	return "Summarize the outcome of the following completed sub-tasks for the " +
		"user who asked: " + question + "\n\n" + childResults
}
