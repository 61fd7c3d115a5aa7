// Package memory hydrates the per-turn context (thread summary, task
// summary, project notes, global user notes) from the Core service
// before a turn starts classifying .
package memory

import (
	"context"
	"log/slog"

	"github.com/rajat1299/Cowork-sub000/pkg/core"
)

// Context is the hydrated memory bundle handed to the run loop.
type Context struct {
	ThreadSummary  string
	TaskSummary    string
	ProjectNotes   []core.Note
	GlobalNotes    []core.Note
}

// Builder hydrates Context via the Core client. All four lookups are
// idempotent GETs; a failure on any one degrades that field to empty
// rather than aborting the turn, matching the Core failure policy in
// spec §4.9/§7 ("failures are logged and return 'no result'").
type Builder struct {
	core   *core.Client
	logger *slog.Logger
}

func NewBuilder(c *core.Client, logger *slog.Logger) *Builder {
	return &Builder{core: c, logger: logger}
}

// Hydrate loads everything needed for one turn. taskID scopes the task
// summary; projectID scopes the thread summary and project notes;
// globalUserID (may be empty) scopes global user notes.
func (b *Builder) Hydrate(ctx context.Context, bearerToken, projectID, taskID, globalUserID string) Context {
	var out Context

	if s, err := b.core.GetThreadSummary(ctx, bearerToken, projectID); err != nil {
		b.logger.Warn("hydrate: thread summary unavailable", "project_id", projectID, "error", err)
	} else {
		out.ThreadSummary = s
	}

	if s, err := b.core.GetTaskSummary(ctx, bearerToken, taskID); err != nil {
		b.logger.Warn("hydrate: task summary unavailable", "task_id", taskID, "error", err)
	} else {
		out.TaskSummary = s
	}

	if notes, err := b.core.GetNotes(ctx, bearerToken, projectID); err != nil {
		b.logger.Warn("hydrate: project notes unavailable", "project_id", projectID, "error", err)
	} else {
		out.ProjectNotes = notes
	}

	if globalUserID != "" {
		if notes, err := b.core.GetNotes(ctx, bearerToken, globalUserID); err != nil {
			b.logger.Warn("hydrate: global notes unavailable", "user_id", globalUserID, "error", err)
		} else {
			out.GlobalNotes = notes
		}
	}

	return out
}

// PersistTaskSummary is the idempotent upsert used after decomposition
// .
func (b *Builder) PersistTaskSummary(ctx context.Context, bearerToken, taskID, summary string) {
	if err := b.core.PutTaskSummary(ctx, bearerToken, core.TaskSummary{TaskID: taskID, Summary: summary}); err != nil {
		b.logger.Warn("persist task summary failed", "task_id", taskID, "error", err)
	}
}
