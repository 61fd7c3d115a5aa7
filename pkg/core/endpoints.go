package core

import "context"

// ProviderConfig mirrors the spec §3 Provider Config entity as returned
// by the Core service's provider catalog.
type ProviderConfig struct {
	ID           string         `json:"id"`
	ProviderName string         `json:"provider_name"`
	ModelType    string         `json:"model_type"`
	APIKey       string         `json:"api_key"`
	EndpointURL  string         `json:"endpoint_url,omitempty"`
	ExtraParams  map[string]any `json:"extra_params,omitempty"`
}

// PreferredProvider loads the caller's preferred provider config. Per
// spec §4.2 step 2, a failure here degrades to "no preferred provider"
// rather than aborting the turn, so callers check (nil, err) and fall
// back rather than propagate.
func (c *Client) PreferredProvider(ctx context.Context, bearerToken string) (*ProviderConfig, error) {
	var out ProviderConfig
	if err := c.doJSON(ctx, "GET", "/providers/internal", bearerToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProviderByID loads a specific provider config by id.
func (c *Client) ProviderByID(ctx context.Context, bearerToken, id string) (*ProviderConfig, error) {
	var out ProviderConfig
	if err := c.doJSON(ctx, "GET", "/provider/internal/"+id, bearerToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HistoryCreateRequest/Response realize "POST /chat/history": the call
// returns its id so later updates can key off it .
type HistoryCreateRequest struct {
	ProjectID string `json:"project_id"`
	TaskID    string `json:"task_id"`
	Question  string `json:"question"`
}

type HistoryCreateResponse struct {
	ID string `json:"id"`
}

func (c *Client) CreateHistory(ctx context.Context, bearerToken string, req HistoryCreateRequest) (string, error) {
	var out HistoryCreateResponse
	if err := c.doJSON(ctx, "POST", "/chat/history", bearerToken, req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// HistoryUpdateRequest is PUT'd to /chat/history/{id}; re-issuing the
// same terminal update is idempotent in id .
type HistoryUpdateRequest struct {
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Tokens int    `json:"tokens,omitempty"`
}

func (c *Client) UpdateHistory(ctx context.Context, bearerToken, id string, req HistoryUpdateRequest) error {
	return c.doJSON(ctx, "PUT", "/chat/history/"+id, bearerToken, req, nil)
}

// PersistStep fire-and-forgets a StepEvent to Core ; data is left as `any` since the caller already has a
// fully-typed events.StepEvent and this package must not import events
// to avoid a cycle (core is a leaf dependency per spec §2's ordering).
func (c *Client) PersistStep(ctx context.Context, bearerToken string, step any) error {
	return c.doJSON(ctx, "POST", "/chat/steps", bearerToken, step, nil)
}

// PersistArtifact fire-and-forgets an Artifact to Core ("POST
// /chat/artifacts").
func (c *Client) PersistArtifact(ctx context.Context, bearerToken string, artifact any) error {
	return c.doJSON(ctx, "POST", "/chat/artifacts", bearerToken, artifact, nil)
}

// Memory endpoints : thread/task summaries are upserts,
// notes are append-only.

type ThreadSummary struct {
	ProjectID string `json:"project_id"`
	Summary   string `json:"summary"`
}

func (c *Client) GetThreadSummary(ctx context.Context, bearerToken, projectID string) (string, error) {
	var out ThreadSummary
	if err := c.doJSON(ctx, "GET", "/memory/thread-summary?project_id="+projectID, bearerToken, nil, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

func (c *Client) PutThreadSummary(ctx context.Context, bearerToken string, s ThreadSummary) error {
	return c.doJSON(ctx, "PUT", "/memory/thread-summary", bearerToken, s, nil)
}

type TaskSummary struct {
	TaskID  string `json:"task_id"`
	Summary string `json:"summary"`
}

func (c *Client) GetTaskSummary(ctx context.Context, bearerToken, taskID string) (string, error) {
	var out TaskSummary
	if err := c.doJSON(ctx, "GET", "/memory/task-summary?task_id="+taskID, bearerToken, nil, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

func (c *Client) PutTaskSummary(ctx context.Context, bearerToken string, s TaskSummary) error {
	return c.doJSON(ctx, "PUT", "/memory/task-summary", bearerToken, s, nil)
}

type Note struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

func (c *Client) GetNotes(ctx context.Context, bearerToken, projectID string) ([]Note, error) {
	var out []Note
	if err := c.doJSON(ctx, "GET", "/memory/notes?project_id="+projectID, bearerToken, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddNote(ctx context.Context, bearerToken string, n Note) error {
	return c.doJSON(ctx, "POST", "/memory/notes", bearerToken, n, nil)
}

// AuthMe forwards a bearer token/cookie to Core to validate it, per the
// authentication rule in spec §6.
type AuthMeResponse struct {
	UserID string `json:"user_id"`
	Valid  bool   `json:"valid"`
}

func (c *Client) AuthMe(ctx context.Context, bearerToken string) (*AuthMeResponse, error) {
	var out AuthMeResponse
	if err := c.doJSON(ctx, "GET", "/auth/me", bearerToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
