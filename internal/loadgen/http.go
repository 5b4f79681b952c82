package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// HTTPClient wraps http.Client for the scoreboard endpoints.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a client with a per-request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Health calls GET /healthz.
func (c *HTTPClient) Health(ctx context.Context) error {
	status, body, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("health check: HTTP %d: %s", status, body)
	}
	return nil
}

// Submit calls POST /scores and returns the status code.
func (c *HTTPClient) Submit(ctx context.Context, s Submission) (int, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return 0, fmt.Errorf("marshal submission: %w", err)
	}
	status, _, err := c.do(ctx, http.MethodPost, "/scores", payload)
	return status, err
}

// Leaderboard calls GET /scores?limit=n.
func (c *HTTPClient) Leaderboard(ctx context.Context, n int) ([]Entry, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/scores?limit="+strconv.Itoa(n), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("leaderboard: HTTP %d: %s", status, body)
	}
	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("parse leaderboard: %w", err)
	}
	return entries, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}
