package playtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// command posts one chat command. A 429 is returned with its body so the
// caller can retry.
func (c *HTTPClient) command(ctx context.Context, baseURL string, req commandRequest) (commandResult, int, error) {
	resp, err := c.Post(ctx, baseURL+"/v1/commands", req)
	if err != nil {
		return commandResult{}, 0, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return commandResult{}, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != StatusOK && resp.StatusCode != StatusTooManyRequests {
		return commandResult{}, resp.StatusCode, fmt.Errorf("command %q failed with status %d: %s", req.Text, resp.StatusCode, body)
	}
	var res commandResult
	if err := json.Unmarshal(body, &res); err != nil {
		return commandResult{}, resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return res, resp.StatusCode, nil
}

// sessionExists reports whether the server still holds the session.
func (c *HTTPClient) sessionExists(ctx context.Context, baseURL, code string) (bool, error) {
	resp, err := c.Get(ctx, baseURL+"/v1/sessions/"+code)
	if err != nil {
		return false, err
	}
	_, _ = readResponseBody(resp)
	switch resp.StatusCode {
	case StatusOK:
		return true, nil
	case StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("session lookup failed with status %d", resp.StatusCode)
	}
}
