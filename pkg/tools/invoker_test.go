package tools

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajat1299/Cowork-sub000/pkg/events"
	"github.com/rajat1299/Cowork-sub000/pkg/queue"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClassifyTier(t *testing.T) {
	assert.Equal(t, TierAlwaysAsk, ClassifyTier("TerminalToolkit", "terminal_exec"))
	assert.Equal(t, TierAskOnce, ClassifyTier("FileToolkit", "write_to_file"))
	assert.Equal(t, TierNeverAsk, ClassifyTier("SearchToolkit", "search"))
}

func TestInvoker_NeverAskSkipsApproval(t *testing.T) {
	stream := events.NewEventStream("t1", 8, testLogger())
	pub := events.NewPublisher(stream)
	lock := queue.NewManager().GetOrCreate("p1")
	inv := &Invoker{Gate: &ApprovalGate{Logger: testLogger()}, Publisher: pub, Lock: lock}

	go func() {
		result, err := inv.Invoke(context.Background(), ToolContext{AgentName: "search_agent"},
			ToolCall{ToolkitName: "SearchToolkit", MethodName: "search"},
			func(ctx context.Context, call ToolCall) (ToolResult, error) {
				return ToolResult{Content: "results"}, nil
			})
		require.NoError(t, err)
		assert.Equal(t, "results", result.Content)
		stream.Close()
	}()

	var steps []events.StepKind
	for {
		evt, ok := stream.Next()
		if !ok {
			break
		}
		steps = append(steps, evt.Step)
	}
	assert.Equal(t, []events.StepKind{events.StepActivateToolkit, events.StepDeactivateToolkit}, steps)
}

func TestInvoker_AlwaysAskDeniedReturnsPermissionError(t *testing.T) {
	stream := events.NewEventStream("t1", 8, testLogger())
	pub := events.NewPublisher(stream)
	lock := queue.NewManager().GetOrCreate("p1")
	gate := &ApprovalGate{Timeout: 50 * time.Millisecond, DefaultAllow: false, Logger: testLogger()}
	inv := &Invoker{Gate: gate, Publisher: pub, Lock: lock}

	var callErr error
	done := make(chan struct{})
	go func() {
		_, callErr = inv.Invoke(context.Background(), ToolContext{AgentName: "developer_agent"},
			ToolCall{ToolkitName: "TerminalToolkit", MethodName: "terminal_exec"},
			func(ctx context.Context, call ToolCall) (ToolResult, error) {
				t.Fatal("underlying call must not run when denied")
				return ToolResult{}, nil
			})
		stream.Close()
		close(done)
	}()

	for {
		if _, ok := stream.Next(); !ok {
			break
		}
	}
	<-done
	assert.ErrorIs(t, callErr, ErrPermissionDenied)
}

func TestInvoker_AskOnceRemembersDecision(t *testing.T) {
	lock := queue.NewManager().GetOrCreate("p1")
	lock.RememberDecision(ToolkitKey("FileToolkit", "write_to_file"), queue.ApprovalDecision{Approved: true, Remember: true})

	stream := events.NewEventStream("t1", 8, testLogger())
	pub := events.NewPublisher(stream)
	inv := &Invoker{Gate: &ApprovalGate{Logger: testLogger()}, Publisher: pub, Lock: lock}

	called := false
	go func() {
		_, err := inv.Invoke(context.Background(), ToolContext{AgentName: "document_agent"},
			ToolCall{ToolkitName: "FileToolkit", MethodName: "write_to_file"},
			func(ctx context.Context, call ToolCall) (ToolResult, error) {
				called = true
				return ToolResult{Content: "ok"}, nil
			})
		require.NoError(t, err)
		stream.Close()
	}()
	for {
		if _, ok := stream.Next(); !ok {
			break
		}
	}
	assert.True(t, called, "remembered ask_once approval should skip prompting")
}
