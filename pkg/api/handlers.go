package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rajat1299/Cowork-sub000/pkg/events"
	"github.com/rajat1299/Cowork-sub000/pkg/queue"
)

// chatRequest is the inbound body shared by POST /chat and POST
// /chat/:project_id/improve (spec §6).
type chatRequest struct {
	ProjectID        string                    `json:"project_id" binding:"required"`
	TaskID           string                    `json:"task_id" binding:"required"`
	Question         string                    `json:"question" binding:"required"`
	SearchEnabled    *bool                     `json:"search_enabled,omitempty"`
	Attachments      []string                  `json:"attachments,omitempty"`
	ProviderOverride *providerOverrideRequest  `json:"provider_override,omitempty"`
	CustomAgents     []customAgentSpecRequest  `json:"custom_agents,omitempty"`
}

type providerOverrideRequest struct {
	ProviderName string         `json:"provider_name"`
	ModelType    string         `json:"model_type"`
	APIKey       string         `json:"api_key"`
	EndpointURL  string         `json:"endpoint_url,omitempty"`
	ExtraParams  map[string]any `json:"extra_params,omitempty"`
}

type customAgentSpecRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	SystemPrompt string   `json:"system_prompt"`
	Tools        []string `json:"tools,omitempty"`
}

func (r *chatRequest) toImproveAction(authToken string) queue.ImproveAction {
	a := queue.ImproveAction{
		ProjectID:     r.ProjectID,
		TaskID:        r.TaskID,
		Question:      r.Question,
		SearchEnabled: r.SearchEnabled,
		Attachments:   r.Attachments,
		AuthToken:     authToken,
	}
	if r.ProviderOverride != nil {
		a.ProviderOverride = &queue.ProviderOverride{
			ProviderName: r.ProviderOverride.ProviderName,
			ModelType:    r.ProviderOverride.ModelType,
			APIKey:       r.ProviderOverride.APIKey,
			EndpointURL:  r.ProviderOverride.EndpointURL,
			ExtraParams:  r.ProviderOverride.ExtraParams,
		}
	}
	for _, c := range r.CustomAgents {
		a.CustomAgents = append(a.CustomAgents, queue.CustomAgentSpec{
			Name: c.Name, Description: c.Description, SystemPrompt: c.SystemPrompt, Tools: c.Tools,
		})
	}
	return a
}

// postChat handles POST /chat (spec §6): enqueues an Improve action and
// streams the turn's step events as text/event-stream until end. The
// caller must register interest in the turn's EventStream *before*
// enqueuing, closing the race AwaitStream's doc comment calls out.
func (s *Server) postChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	lock := s.engine.EnsureRunning(ctx, req.ProjectID)
	action := req.toImproveAction(authToken(c))

	// AwaitStream must be registered before the Improve action reaches the
	// queue, so the wait is started first and the enqueue happens from a
	// separate goroutine rather than after AwaitStream blocks.
	go func() {
		lock.Put(queue.NewImprove(action))
	}()

	evtStream, ok := s.engine.AwaitStream(ctx, req.TaskID)
	if !ok {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "turn did not start"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	if err := events.WriteSSE(c.Writer, flusher, evtStream); err != nil {
		s.logger.Warn("sse stream write failed", "project_id", req.ProjectID, "task_id", req.TaskID, "error", err)
	}
}

// postImprove handles POST /chat/:project_id/improve (spec §6):
// enqueue-only, idempotent across retries with the same task_id — the
// caller does not attach to the stream here, so no AwaitStream
// registration is needed.
func (s *Server) postImprove(c *gin.Context) {
	req := chatRequest{ProjectID: c.Param("project_id")}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ProjectID = c.Param("project_id")

	ctx := c.Request.Context()
	lock := s.engine.EnsureRunning(ctx, req.ProjectID)
	lock.Put(queue.NewImprove(req.toImproveAction(authToken(c))))

	c.JSON(http.StatusOK, gin.H{"status": "queued"})
}

// deleteChat handles DELETE /chat/:project_id: enqueues a Stop action.
func (s *Server) deleteChat(c *gin.Context) {
	projectID := c.Param("project_id")

	var body struct {
		Reason string `json:"reason,omitempty"`
	}
	_ = c.ShouldBindJSON(&body)

	lock, ok := s.manager.Get(projectID)
	if !ok {
		lock = s.engine.EnsureRunning(c.Request.Context(), projectID)
	}
	lock.Put(queue.NewStop(queue.StopAction{ProjectID: projectID, Reason: body.Reason}))

	c.JSON(http.StatusOK, gin.H{"status": "stopping"})
}

// postPermission handles POST /chat/:project_id/permission: resolves a
// pending ask_user prompt registered by the approval gate.
func (s *Server) postPermission(c *gin.Context) {
	projectID := c.Param("project_id")

	var body struct {
		RequestID string `json:"request_id" binding:"required"`
		Approved  bool   `json:"approved"`
		Remember  bool   `json:"remember,omitempty"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lock, ok := s.manager.Get(projectID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown project"})
		return
	}

	if !lock.ResolveApproval(body.RequestID, queue.ApprovalDecision{Approved: body.Approved, Remember: body.Remember}) {
		c.JSON(http.StatusConflict, gin.H{"error": "no pending approval for request_id (already resolved or timed out)"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}
