package core

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(srv.URL, "internal-key", logger), srv
}

func TestClient_CreateHistoryReturnsID(t *testing.T) {
	var gotAuth, gotInternal string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotInternal = r.Header.Get("X-Internal-Key")
		assert.Equal(t, "/chat/history", r.URL.Path)
		var req HistoryCreateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "p1", req.ProjectID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(HistoryCreateResponse{ID: "h-1"})
	})

	id, err := c.CreateHistory(t.Context(), "tok-123", HistoryCreateRequest{ProjectID: "p1", TaskID: "t1", Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, "h-1", id)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "internal-key", gotInternal)
}

func TestClient_UpdateHistoryIsIdempotentInID(t *testing.T) {
	calls := 0
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/chat/history/h-1", r.URL.Path)
		assert.Equal(t, http.MethodPut, r.Method)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.UpdateHistory(t.Context(), "tok", "h-1", HistoryUpdateRequest{Status: "DONE"}))
	require.NoError(t, c.UpdateHistory(t.Context(), "tok", "h-1", HistoryUpdateRequest{Status: "DONE"}))
	assert.Equal(t, 2, calls)
}

func TestClient_NonTwoXXReturnsError(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	_, err := c.PreferredProvider(t.Context(), "tok")
	assert.Error(t, err)
}

func TestClient_PreferredProviderDegradesOnFailureRatherThanPanicking(t *testing.T) {
	c, srv := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv.Close()

	provider, err := c.PreferredProvider(t.Context(), "tok")
	assert.Error(t, err)
	assert.Nil(t, provider)
}

func TestClient_MemoryEndpointsRoundTrip(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/memory/thread-summary":
			json.NewEncoder(w).Encode(ThreadSummary{ProjectID: "p1", Summary: "recap"})
		case r.Method == http.MethodPut && r.URL.Path == "/memory/thread-summary":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet && r.URL.Path == "/memory/notes":
			json.NewEncoder(w).Encode([]Note{{ID: "n1", Text: "note"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	summary, err := c.GetThreadSummary(t.Context(), "tok", "p1")
	require.NoError(t, err)
	assert.Equal(t, "recap", summary)

	require.NoError(t, c.PutThreadSummary(t.Context(), "tok", ThreadSummary{ProjectID: "p1", Summary: "recap2"}))

	notes, err := c.GetNotes(t.Context(), "tok", "p1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "note", notes[0].Text)
}

func TestClient_PersistStepAndArtifactAreFireAndForget(t *testing.T) {
	var hits int
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusAccepted)
	})

	require.NoError(t, c.PersistStep(t.Context(), "tok", map[string]any{"task_id": "t1", "step": "end"}))
	require.NoError(t, c.PersistArtifact(t.Context(), "tok", map[string]any{"task_id": "t1", "name": "out.md"}))
	assert.Equal(t, 2, hits)
}
