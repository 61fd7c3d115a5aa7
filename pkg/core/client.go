// Package core implements the HTTP client the engine uses to talk to the
// companion Core service (auth/identity, provider config catalog, and
// durable history/memory/artifact persistence). The Core service itself
// is out of scope ; this package is only the typed contract the
// engine requires from it.
package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Timeout is the short per-call timeout spec §5 requires for every Core
// HTTP call: failures must not be allowed to stall a turn.
const Timeout = 10 * time.Second

// Client is a small HTTP client with a shared connection pool (one
// *http.Client reused across calls, the way the teacher's gRPC client
// reuses one connection rather than dialing per call).
type Client struct {
	baseURL     string
	internalKey string
	httpClient  *http.Client
	logger      *slog.Logger
}

// New creates a Core client. baseURL and internalKey come from
// CORE_API_URL / CORE_API_INTERNAL_KEY .
func New(baseURL, internalKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		internalKey: internalKey,
		httpClient:  &http.Client{Timeout: Timeout},
		logger:      logger,
	}
}

// doJSON issues an HTTP request carrying the caller's bearer token and
// the internal-service key, and decodes a JSON response into out (which
// may be nil for calls where the body doesn't matter). Every failure is
// logged and returned rather than panicking; callers decide whether the
// failure is fatal to the turn .
func (c *Client) doJSON(ctx context.Context, method, path, bearerToken string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal core request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build core request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}
	if c.internalKey != "" {
		req.Header.Set("X-Internal-Key", c.internalKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("core call failed", "path", path, "error", err)
		return fmt.Errorf("core call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("core call non-2xx", "path", path, "status", resp.StatusCode, "body", string(data))
		return fmt.Errorf("core call %s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode core response from %s: %w", path, err)
	}
	return nil
}
