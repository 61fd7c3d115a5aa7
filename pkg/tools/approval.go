package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rajat1299/Cowork-sub000/pkg/events"
	"github.com/rajat1299/Cowork-sub000/pkg/queue"
)

// ApprovalGate runs the approval prompt protocol in front of sensitive
// toolkit calls . ctx passed to RequestApproval is the
// turn's context; the run loop cancels it when stop_requested flips, so
// a pending approval returns deny immediately on cancellation rather
// than waiting out the full timeout .
type ApprovalGate struct {
	Timeout      time.Duration // default 120s
	DefaultAllow bool          // approve in development, deny elsewhere
	Logger       *slog.Logger
}

// RequestApproval returns whether the call is approved. tier must
// already be resolved via ClassifyTier; never_ask never reaches here in
// practice but is handled for completeness.
func (g *ApprovalGate) RequestApproval(
	ctx context.Context,
	lock *queue.ProjectLock,
	pub *events.Publisher,
	tier Tier,
	toolkitName, methodName, humanQuestion, detail, agentName, processTaskID string,
) (bool, error) {
	if tier == TierNeverAsk {
		return true, nil
	}

	key := ToolkitKey(toolkitName, methodName)
	if tier == TierAskOnce {
		if d, ok := lock.RememberedDecision(key); ok {
			return d.Approved, nil
		}
	}

	if lock.StopRequested() {
		return false, nil
	}

	requestID := uuid.NewString()
	ch := lock.RegisterApproval(requestID)
	pub.AskUser(requestID, string(tier), humanQuestion, detail, toolkitName, methodName, agentName, processTaskID)

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	select {
	case decision := <-ch:
		if tier == TierAskOnce && decision.Remember {
			lock.RememberDecision(key, decision)
		}
		return decision.Approved, nil

	case <-ctx.Done():
		lock.UnregisterApproval(requestID)
		return false, nil

	case <-time.After(timeout):
		lock.UnregisterApproval(requestID)
		pub.Notice(fmt.Sprintf("approval timeout for %s.%s: defaulting to %s", toolkitName, methodName, allowWord(g.DefaultAllow)))
		g.Logger.Warn("approval timed out", "toolkit", toolkitName, "method", methodName, "default_allow", g.DefaultAllow)
		return g.DefaultAllow, nil
	}
}

func allowWord(allow bool) string {
	if allow {
		return "approve"
	}
	return "deny"
}
