package workforce

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rajat1299/Cowork-sub000/pkg/config"
	"github.com/rajat1299/Cowork-sub000/pkg/llm"
	"github.com/rajat1299/Cowork-sub000/pkg/tools"
)

// Runner executes one assigned sub-task under an agent profile. The
// third-party agent/toolkit library itself is out of scope (spec §1);
// this interface is the wire-level contract the scheduler requires from
// whatever implements an agent's reasoning loop — the default LLMRunner
// below satisfies it with a single completion, and a real toolkit-backed
// implementation can be substituted without changing the scheduler.
type Runner interface {
	RunSubTask(ctx context.Context, agent config.AgentProfile, toolList []string, tc tools.ToolContext, node *TaskNode) (result string, tokens int, err error)
}

// LLMRunner runs a sub-task as a single streamed completion against the
// turn's provider: the agent's system prompt plus the sub-task content
// as the user turn. The full third-party tool-calling reasoning loop is
// out of scope (spec §1); what LLMRunner does instead is the minimal
// toolkit-invocation path spec §4.4/§4.5 still requires of the engine —
// when the assigned agent carries a file-writing tool, a completion that
// declares a file via the fenced-file convention below is written to
// disk through Invoker, the same wrapper a fuller tool-calling runner
// would call for every tool use (mirroring original_source's
// toolkits/registry.py + camel_tools.py FileToolkit).
type LLMRunner struct {
	Dialect     llm.Dialect
	Provider    llm.ProviderConfig
	Invoker     *tools.Invoker
	WorkdirRoot string
}

// fencedFileBlock matches a ```file: <relative path>\n<content>``` block,
// the convention agentSystemPrompt instructs a file-writing agent to use
// in place of a real tool-call wire format.
var fencedFileBlock = regexp.MustCompile("(?s)```file:\\s*([^\\n`]+)\\n(.*?)```")

func (r *LLMRunner) RunSubTask(ctx context.Context, agent config.AgentProfile, toolList []string, tc tools.ToolContext, node *TaskNode) (string, int, error) {
	input := llm.GenerateInput{
		Model: r.Provider.Model,
		Messages: []llm.ConversationMessage{
			{Role: llm.RoleSystem, Content: agentSystemPrompt(agent, toolList)},
			{Role: llm.RoleUser, Content: node.Content},
		},
		Temperature: 0.2,
	}

	chunks, err := r.Dialect.Stream(ctx, r.Provider, input)
	if err != nil {
		return "", 0, err
	}

	var sb strings.Builder
	tokens := 0
	for c := range chunks {
		switch v := c.(type) {
		case llm.TextChunk:
			sb.WriteString(v.Text)
		case llm.UsageChunk:
			tokens = v.Usage.TotalTokens
		case llm.ErrorChunk:
			return sb.String(), tokens, v.Err
		}
	}

	text := sb.String()
	if r.Invoker != nil && contains(toolList, "file_write") {
		r.writeDeclaredFiles(ctx, tc, text)
	}
	return text, tokens, nil
}

// writeDeclaredFiles runs every fenced file declaration in text through
// the toolkit invoker as a FileToolkit.write_to_file call, so each one
// gets its activate_toolkit/deactivate_toolkit pair, approval-gate check,
// and artifact detection pass — exactly as a real tool call would.
func (r *LLMRunner) writeDeclaredFiles(ctx context.Context, tc tools.ToolContext, text string) {
	for _, m := range fencedFileBlock.FindAllStringSubmatch(text, -1) {
		rel := strings.TrimSpace(m[1])
		content := m[2]
		if rel == "" {
			continue
		}
		call := tools.ToolCall{
			ToolkitName: "FileToolkit",
			MethodName:  "write_to_file",
			Args:        map[string]any{"path": rel},
		}
		_, _ = r.Invoker.Invoke(ctx, tc, call, func(_ context.Context, call tools.ToolCall) (tools.ToolResult, error) {
			path, _ := call.Args["path"].(string)
			dest, ok := r.safeJoin(path)
			if !ok {
				return tools.ToolResult{IsError: true}, fmt.Errorf("path %q escapes project workdir", path)
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return tools.ToolResult{IsError: true}, err
			}
			if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
				return tools.ToolResult{IsError: true}, err
			}
			return tools.ToolResult{Content: fmt.Sprintf("written to file: %s", path)}, nil
		})
	}
}

// safeJoin resolves rel against WorkdirRoot and refuses to return a path
// that escapes it, the same guard pkg/api's generated-file download
// handler applies in the other direction.
func (r *LLMRunner) safeJoin(rel string) (string, bool) {
	resolved := filepath.Clean(filepath.Join(r.WorkdirRoot, rel))
	if resolved != r.WorkdirRoot && !strings.HasPrefix(resolved, r.WorkdirRoot+string(filepath.Separator)) {
		return "", false
	}
	return resolved, true
}

func agentSystemPrompt(agent config.AgentProfile, toolList []string) string {
	if len(toolList) == 0 {
		return agent.SystemPrompt
	}
	prompt := agent.SystemPrompt + "\n\nAvailable tools: " + strings.Join(toolList, ", ")
	if contains(toolList, "file_write") {
		prompt += "\n\nTo write a deliverable file, include a fenced block in your reply: " +
			"```file: <relative-path>\\n<file contents>```. One block per file."
	}
	return prompt
}
