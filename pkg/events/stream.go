package events

import (
	"log/slog"
	"sync"
	"time"
)

// StepListener is invoked synchronously on every emit, before the event
// reaches the SSE consumer. The Skill Engine uses this hook to observe
// the turn's event stream  without being on the
// critical delivery path.
type StepListener func(StepEvent)

// EventStream is owned by exactly one turn's run loop. Any goroutine
// (including tool wrappers running inside a sub-agent) may call Emit;
// exactly one goroutine — the SSE handler — calls Next/Close.
//
// Ordering contract: events are delivered to the consumer in emission
// order per producer. The run loop is the only producer that matters for
// global ordering since tool wrappers emit synchronously from within the
// run loop's own call stack (an agent awaits its tool call before the
// run loop proceeds), never concurrently with the loop itself.
type EventStream struct {
	taskID string
	logger *slog.Logger

	ch     chan StepEvent
	done   chan struct{}
	once   sync.Once

	mu       sync.Mutex
	listener StepListener
	closed   bool
}

// NewEventStream creates an EventStream for one turn. buf sizes the
// internal channel so that emit() never blocks a producer on a slow SSE
// consumer for ordinary bursts (streaming text chunks in particular).
func NewEventStream(taskID string, buf int, logger *slog.Logger) *EventStream {
	if buf <= 0 {
		buf = 64
	}
	return &EventStream{
		taskID: taskID,
		logger: logger,
		ch:     make(chan StepEvent, buf),
		done:   make(chan struct{}),
	}
}

// SetListener installs a synchronous observer called on every Emit, in
// emission order, before the event is queued for the consumer. It must
// be set before the turn starts emitting; it is not safe to change
// concurrently with Emit.
func (s *EventStream) SetListener(l StepListener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

// Emit enqueues a step event. It is non-blocking for callers up to the
// channel buffer; once the buffer is full a slow consumer will cause
// Emit to block, which is an intentional backpressure point rather than
// silent drop .
func (s *EventStream) Emit(step StepKind, data any) {
	evt := StepEvent{
		TaskID:    s.taskID,
		Step:      step,
		Data:      data,
		Timestamp: time.Now(),
	}

	s.mu.Lock()
	listener := s.listener
	closed := s.closed
	s.mu.Unlock()

	if closed {
		s.logger.Warn("emit after close, dropping", "task_id", s.taskID, "step", step)
		return
	}

	if listener != nil {
		listener(evt)
	}

	select {
	case s.ch <- evt:
	case <-s.done:
	}
}

// Next blocks until the next event is available or the stream closes.
// The second return value is false once the stream is closed and
// drained.
func (s *EventStream) Next() (StepEvent, bool) {
	evt, ok := <-s.ch
	return evt, ok
}

// Close is terminal: it unblocks any consumer waiting in Next and any
// producer blocked in Emit. Calling Close more than once is a no-op.
func (s *EventStream) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.done)
		close(s.ch)
	})
}
