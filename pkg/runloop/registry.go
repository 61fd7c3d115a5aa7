package runloop

import (
	"context"
	"sync"

	"github.com/rajat1299/Cowork-sub000/pkg/events"
	"github.com/rajat1299/Cowork-sub000/pkg/queue"
)

// running/waiters back the two bits of cross-goroutine bookkeeping the
// HTTP layer needs that a ProjectLock alone can't give it: "is this
// project's run loop goroutine already started" and "hand me the
// EventStream for a task_id as soon as its turn creates one". Neither
// is part of the Project Queue itself (spec §4.1) — they exist only to
// let POST /chat attach to a turn's stream without a race against the
// FIFO queue actually reaching it.
type registry struct {
	mu      sync.Mutex
	started map[string]bool
	waiters map[string]chan *events.EventStream
}

func (e *Engine) reg() *registry {
	e.regOnce.Do(func() {
		e.regState = &registry{
			started: make(map[string]bool),
			waiters: make(map[string]chan *events.EventStream),
		}
	})
	return e.regState
}

// EnsureRunning starts this project's RunProject goroutine the first
// time any caller asks for it, and is a no-op on every subsequent call.
// It returns the project's lock so the caller can enqueue against it.
func (e *Engine) EnsureRunning(ctx context.Context, projectID string) *queue.ProjectLock {
	lock := e.Manager.GetOrCreate(projectID)

	r := e.reg()
	r.mu.Lock()
	alreadyStarted := r.started[projectID]
	r.started[projectID] = true
	r.mu.Unlock()

	if !alreadyStarted {
		go e.RunProject(ctx, lock)
	}
	return lock
}

// AwaitStream registers interest in task_id's EventStream and blocks
// until runTurn creates it or ctx is done. Callers must call this
// *before* enqueuing the Improve action that carries task_id, so there
// is no window in which the turn could create and even finish its
// stream before anyone started waiting for it.
func (e *Engine) AwaitStream(ctx context.Context, taskID string) (*events.EventStream, bool) {
	r := e.reg()
	r.mu.Lock()
	ch, ok := r.waiters[taskID]
	if !ok {
		ch = make(chan *events.EventStream, 1)
		r.waiters[taskID] = ch
	}
	r.mu.Unlock()

	select {
	case s := <-ch:
		return s, true
	case <-ctx.Done():
		return nil, false
	}
}

// publishStream hands a freshly created turn stream to whatever caller
// is waiting on it via AwaitStream, if any. A turn with no waiter (e.g.
// one started without an attached HTTP client) simply proceeds —
// publishing is fire-and-forget, never a precondition for running.
func (e *Engine) publishStream(taskID string, stream *events.EventStream) {
	r := e.reg()
	r.mu.Lock()
	ch, ok := r.waiters[taskID]
	if ok {
		delete(r.waiters, taskID)
	}
	r.mu.Unlock()
	if ok {
		ch <- stream
	}
}
