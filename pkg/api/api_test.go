package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajat1299/Cowork-sub000/pkg/config"
	"github.com/rajat1299/Cowork-sub000/pkg/core"
	"github.com/rajat1299/Cowork-sub000/pkg/deps"
	"github.com/rajat1299/Cowork-sub000/pkg/queue"
	"github.com/rajat1299/Cowork-sub000/pkg/runloop"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testServer wires a Server against a fake Core backend whose /auth/me
// accepts only the bearer token "tok-valid" and rejects everything
// else, mirroring spec §6's "validated by forwarding /auth/me".
func testServer(t *testing.T) (*httptest.Server, *queue.Manager) {
	t.Helper()

	coreSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/me" {
			auth := r.Header.Get("Authorization")
			if auth == "Bearer tok-valid" {
				json.NewEncoder(w).Encode(core.AuthMeResponse{UserID: "u1", Valid: true})
				return
			}
			json.NewEncoder(w).Encode(core.AuthMeResponse{Valid: false})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(coreSrv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coreClient := core.New(coreSrv.URL, "key", logger)
	manager := queue.NewManager()
	workdir := t.TempDir()
	system := config.System{Workdir: workdir, AppEnv: "development"}
	installer := deps.NewInstaller(workdir, logger)

	engine := &runloop.Engine{
		Manager: manager,
		Core:    coreClient,
		System:  system,
		Logger:  logger,
	}

	srv := NewServer(engine, manager, coreClient, installer, system, logger)
	httpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(httpSrv.Close)
	return httpSrv, manager
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireAuth_RejectsMissingCredentials(t *testing.T) {
	srv, _ := testServer(t)
	resp, err := http.Post(srv.URL+"/chat/p1/improve", "application/json", bytes.NewReader([]byte(`{"task_id":"t1","question":"hi"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuth_RejectsInvalidToken(t *testing.T) {
	srv, _ := testServer(t)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/chat/p1/improve", bytes.NewReader([]byte(`{"task_id":"t1","question":"hi"}`)))
	req.Header.Set("Authorization", "Bearer garbage")
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPostImprove_EnqueuesActionAndReturnsQueued(t *testing.T) {
	srv, manager := testServer(t)
	body := []byte(`{"task_id":"t1","question":"what is the capital of France?"}`)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/chat/p1/improve", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok-valid")
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "queued", out["status"])

	_, ok := manager.Get("p1")
	assert.True(t, ok, "enqueuing should create the project's lock")
}

func TestDeleteChat_EnqueuesStopAndReturnsStopping(t *testing.T) {
	srv, manager := testServer(t)
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/chat/p2", nil)
	req.Header.Set("Authorization", "Bearer tok-valid")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	lock, ok := manager.Get("p2")
	require.True(t, ok)
	assert.True(t, lock.StopRequested())
}

func TestPostPermission_ResolvesPendingApproval(t *testing.T) {
	srv, manager := testServer(t)
	lock := manager.GetOrCreate("p3")
	ch := lock.RegisterApproval("req-1")

	body := []byte(`{"request_id":"req-1","approved":true,"remember":true}`)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/chat/p3/permission", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok-valid")
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case d := <-ch:
		assert.True(t, d.Approved)
		assert.True(t, d.Remember)
	default:
		t.Fatal("expected approval decision to be delivered")
	}
}

func TestPostPermission_UnknownRequestIDConflicts(t *testing.T) {
	srv, manager := testServer(t)
	manager.GetOrCreate("p4")

	body := []byte(`{"request_id":"no-such-request","approved":true}`)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/chat/p4/permission", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok-valid")
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestFilesUploadAndDownloadRoundTrip(t *testing.T) {
	srv, _ := testServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("project_id", "p5"))
	part, err := w.CreateFormFile("files", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello artifact"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/files/upload", &buf)
	req.Header.Set("Authorization", "Bearer tok-valid")
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Files []struct {
			FileID   string `json:"file_id"`
			Filename string `json:"filename"`
		} `json:"files"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Files, 1)

	getReq, _ := http.NewRequest(http.MethodGet, srv.URL+"/files/p5/"+out.Files[0].FileID, nil)
	getReq.Header.Set("Authorization", "Bearer tok-valid")
	getResp, err := http.DefaultClient.Do(getReq)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
	data, err := io.ReadAll(getResp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello artifact", string(data))
}

func TestGetGeneratedFile_RejectsPathEscapingWorkdir(t *testing.T) {
	srv, _ := testServer(t)
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/files/generated/p6/download?path=../../etc/passwd", nil)
	req.Header.Set("Authorization", "Bearer tok-valid")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDepsInstallAndStatus(t *testing.T) {
	srv, _ := testServer(t)

	body := []byte(`{"project_id":"p7","command":"echo hi"}`)
	resp, err := http.Post(srv.URL+"/ops/deps/install", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	statusResp, err := http.Get(srv.URL + "/ops/deps/status?project_id=p7")
	require.NoError(t, err)
	defer statusResp.Body.Close()
	assert.Equal(t, http.StatusOK, statusResp.StatusCode)
}
