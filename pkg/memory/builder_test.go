package memory

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajat1299/Cowork-sub000/pkg/core"
)

func testBuilder(t *testing.T, handler http.HandlerFunc) *Builder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBuilder(core.New(srv.URL, "key", logger), logger)
}

func TestBuilder_HydrateCollectsAllFourSources(t *testing.T) {
	b := testBuilder(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/memory/thread-summary":
			json.NewEncoder(w).Encode(core.ThreadSummary{Summary: "thread"})
		case "/memory/task-summary":
			json.NewEncoder(w).Encode(core.TaskSummary{Summary: "task"})
		case "/memory/notes":
			if r.URL.Query().Get("project_id") == "p1" {
				json.NewEncoder(w).Encode([]core.Note{{Text: "project note"}})
			} else {
				json.NewEncoder(w).Encode([]core.Note{{Text: "global note"}})
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := b.Hydrate(t.Context(), "tok", "p1", "t1", "u1")
	assert.Equal(t, "thread", ctx.ThreadSummary)
	assert.Equal(t, "task", ctx.TaskSummary)
	require.Len(t, ctx.ProjectNotes, 1)
	assert.Equal(t, "project note", ctx.ProjectNotes[0].Text)
	require.Len(t, ctx.GlobalNotes, 1)
	assert.Equal(t, "global note", ctx.GlobalNotes[0].Text)
}

func TestBuilder_HydrateDegradesOnFailureRatherThanAborting(t *testing.T) {
	b := testBuilder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx := b.Hydrate(t.Context(), "tok", "p1", "t1", "")
	assert.Empty(t, ctx.ThreadSummary)
	assert.Empty(t, ctx.TaskSummary)
	assert.Nil(t, ctx.ProjectNotes)
	assert.Nil(t, ctx.GlobalNotes)
}

func TestBuilder_HydrateSkipsGlobalNotesWhenUserIDEmpty(t *testing.T) {
	calls := 0
	b := testBuilder(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	b.Hydrate(t.Context(), "tok", "p1", "t1", "")
	// thread summary + task summary + project notes = 3 calls, no global notes call.
	assert.Equal(t, 3, calls)
}

func TestBuilder_PersistTaskSummaryIsBestEffort(t *testing.T) {
	b := testBuilder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.NotPanics(t, func() {
		b.PersistTaskSummary(t.Context(), "tok", "t1", "summary")
	})
}
