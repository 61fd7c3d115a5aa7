package runloop

import (
	"context"
	"strings"

	"github.com/rajat1299/Cowork-sub000/pkg/core"
	"github.com/rajat1299/Cowork-sub000/pkg/events"
	"github.com/rajat1299/Cowork-sub000/pkg/llm"
	"github.com/rajat1299/Cowork-sub000/pkg/queue"
)

// runSimple is the simple-classification branch (spec §4.2 step 7): one
// streamed chat completion, each chunk emitted as streaming{chunk},
// terminated by exactly one end event.
func (e *Engine) runSimple(
	ctx context.Context,
	lock *queue.ProjectLock,
	pub *events.Publisher,
	dialect llm.Dialect,
	provider llm.ProviderConfig,
	messages []llm.ConversationMessage,
	authToken, historyID string,
) {
	chunks, err := dialect.Stream(ctx, provider, llm.GenerateInput{
		Model:       provider.Model,
		Messages:    messages,
		Temperature: 0.7,
	})
	if err != nil {
		pub.Error(err.Error())
		pub.End("error", nil)
		e.failHistory(ctx, authToken, historyID)
		return
	}

	var sb strings.Builder
	var usage llm.Usage
	for c := range chunks {
		if lock.StopRequested() {
			pub.TurnCancelled("user_stop")
			pub.End("stopped", map[string]any{"reason": "user_stop"})
			e.cancelHistory(ctx, authToken, historyID)
			return
		}
		switch v := c.(type) {
		case llm.TextChunk:
			sb.WriteString(v.Text)
			pub.Streaming(v.Text)
		case llm.UsageChunk:
			usage = v.Usage
		case llm.ErrorChunk:
			pub.Error(v.Err.Error())
			pub.End("error", nil)
			e.failHistory(ctx, authToken, historyID)
			return
		}
	}

	result := sb.String()
	pub.End(result, map[string]any{"usage": map[string]int{
		"prompt": usage.PromptTokens, "completion": usage.CompletionTokens, "total": usage.TotalTokens,
	}})
	lock.AppendConversation(queue.ConversationTurn{Role: "assistant", Content: result})

	if historyID != "" {
		if err := e.Core.UpdateHistory(ctx, authToken, historyID, core.HistoryUpdateRequest{
			Status: "DONE", Result: result, Tokens: usage.TotalTokens,
		}); err != nil {
			e.Logger.Warn("history update failed", "history_id", historyID, "error", err)
		}
	}
}
