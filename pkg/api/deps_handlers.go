package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rajat1299/Cowork-sub000/pkg/deps"
)

// depsStatus handles GET /ops/deps/status?project_id=...
func (s *Server) depsStatus(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}
	state, command, errMsg := s.deps.Status(projectID)
	c.JSON(http.StatusOK, gin.H{"state": state, "command": command, "error": errMsg})
}

// depsInstall handles POST /ops/deps/install.
func (s *Server) depsInstall(c *gin.Context) {
	var body struct {
		ProjectID string `json:"project_id" binding:"required"`
		Command   string `json:"command" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	workdir := s.projectWorkdir(body.ProjectID)
	if err := s.deps.Install(body.ProjectID, workdir, body.Command); err != nil {
		if errors.Is(err, deps.ErrAlreadyInstalling) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "installing"})
}

// depsLogs handles GET /ops/deps/logs?project_id=...: a snapshot of the
// retained log ring.
func (s *Server) depsLogs(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": s.deps.Logs(projectID)})
}

// depsStream handles GET /ops/deps/stream?project_id=...: live-tails the
// install log over SSE, one `data: <line>\n\n` record per line.
func (s *Server) depsStream(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	lines, unsubscribe := s.deps.Subscribe(projectID)
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", line)
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
